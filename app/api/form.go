package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
)

// MaxUploadSize bounds a multipart request body.
const MaxUploadSize = 32 << 20

// IsMultipart reports whether r carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// ParseForm parses a multipart body of at most MaxUploadSize bytes.
func ParseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.BadRequest(fmt.Sprintf("upload exceeds %d bytes", MaxUploadSize))
		}
		return apierror.BadRequest("invalid multipart body: " + err.Error())
	}
	return nil
}

// FormFile returns the uploaded file for field. Unless required, a missing
// file yields a nil file and no error. exts, when given, lists the accepted
// lower-case extensions.
func FormFile(r *http.Request, field string, required bool, exts ...string) (multipart.File, *multipart.FileHeader, error) {
	f, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, nil, apierror.BadRequest(field + " file is required")
		}
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apierror.BadRequest("invalid " + field + " upload: " + err.Error())
	}
	if len(exts) > 0 {
		ext := strings.ToLower(path.Ext(fh.Filename))
		for _, want := range exts {
			if ext == want {
				return f, fh, nil
			}
		}
		f.Close()
		return nil, nil, apierror.BadRequest(fmt.Sprintf("%s must be one of %s", field, strings.Join(exts, ", ")))
	}
	return f, fh, nil
}

// FormID parses a required numeric form value.
func FormID(r *http.Request, field string) (uint, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, apierror.BadRequest(field + " is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apierror.BadRequest(field + " must be a positive integer")
	}
	return uint(id), nil
}

// FormBool parses an optional boolean form value; empty means false.
func FormBool(r *http.Request, field string) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apierror.BadRequest(field + " must be a boolean")
	}
	return b, nil
}
