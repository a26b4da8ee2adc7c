// Package api holds the request helpers shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var validate = validator.New()

func init() {
	// Names are trimmed before storage, so whitespace alone is no name.
	_ = validate.RegisterValidation("notblank", validators.NotBlank)

	// Register decimal.Decimal as a numeric type so that tags like required
	// and gt=0 work on it.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
}

// Decode binds the JSON body into dst and runs its validate tags.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body: " + err.Error())
	}
	return Validate(dst)
}

// Validate runs the validate tags of v.
func Validate(v any) error {
	return validate.Struct(v)
}

// PathID parses a required numeric path segment. An id that cannot exist is
// reported as not found.
func PathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s %q: %w", name, raw, models.ErrNotFound)
	}
	return uint(id), nil
}

// QueryID parses an optional numeric query parameter.
func QueryID(r *http.Request, name string) (*uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apierror.BadRequest(fmt.Sprintf("query parameter %s must be a positive integer", name))
	}
	v := uint(id)
	return &v, nil
}

// Pagination reads offset and limit. Bad values fall back to the defaults;
// limit is clamped to [1, MaxLimit].
func Pagination(r *http.Request) (offset, limit int) {
	limit = DefaultLimit

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > MaxLimit {
				limit = MaxLimit
			} else {
				limit = l
			}
		}
	}
	return offset, limit
}
