// Package apierror provides the error envelope for every 4xx/5xx response and
// maps domain errors to status codes. Internal details (database errors,
// stack traces) are logged, never returned.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps field-level errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// RequestError is a malformed request: bad JSON, a bad query value, a
// missing form field.
type RequestError struct {
	Detail string
}

func (e *RequestError) Error() string {
	return e.Detail
}

func BadRequest(detail string) error {
	return &RequestError{Detail: detail}
}

const internalDetail = "internal server error"

// Write maps err to a status code and writes the envelope.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	status, body := translate(err)
	logger := Logger(r)
	switch {
	case errors.Is(err, hierarchy.ErrCycleDetected):
		var cycle *hierarchy.CycleError
		ev := logger.Error().Err(err).Str("path", r.URL.Path)
		if errors.As(err, &cycle) {
			chain := make([]string, len(cycle.Chain))
			for i, ref := range cycle.Chain {
				chain[i] = ref.String()
			}
			ev = ev.Strs("chain", chain)
		}
		ev.Msg("parent chain does not terminate")
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("unhandled error")
	default:
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	JSON(w, status, body)
}

func translate(err error) (int, any) {
	var (
		reqErr  *RequestError
		valErr  *models.ValidationError
		invalid validator.ValidationErrors
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, New(reqErr.Detail)
	case errors.As(err, &invalid):
		fields := make(map[string]string, len(invalid))
		for _, fe := range invalid {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, NewValidation(fields)
	case errors.As(err, &valErr):
		if valErr.Field != "" {
			return http.StatusBadRequest, &ValidationError{
				Detail: valErr.Error(),
				Fields: map[string]string{valErr.Field: valErr.Err.Error()},
			}
		}
		return http.StatusBadRequest, New(valErr.Error())
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, New(err.Error())
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, New(err.Error())
	}
	return http.StatusInternalServerError, New(internalDetail)
}

// Status reports the status code Write would use for err.
func Status(err error) int {
	status, _ := translate(err)
	return status
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// Logger returns the request-scoped logger, falling back to the global one.
func Logger(r *http.Request) *zerolog.Logger {
	l := zerolog.Ctx(r.Context())
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
