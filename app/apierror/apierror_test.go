package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

func TestWrite(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "not found",
			err:            fmt.Errorf("load: %w", models.ErrVariantNotFound),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"detail":"load: variant not found"}`,
		},
		{
			name:           "validation with field",
			err:            &models.ValidationError{Field: "model_parent", Err: models.ErrSelfParent},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"detail":"model_parent: a model cannot be its own parent","fields":{"model_parent":"a model cannot be its own parent"}}`,
		},
		{
			name:           "validation without field",
			err:            &models.ValidationError{Err: models.ErrAmbiguousParent},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"detail":"select either a make or a model, not both"}`,
		},
		{
			name:           "bad request",
			err:            BadRequest("file is required"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"detail":"file is required"}`,
		},
		{
			name:           "cycle is an internal fault",
			err:            &hierarchy.CycleError{Chain: []models.ParentRef{models.CarModelRef(1), models.CarModelRef(1)}},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"internal server error"}`,
		},
		{
			name:           "database errors are not leaked",
			err:            errors.New("pq: relation \"variants\" does not exist"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"internal server error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/api/variants/1", nil)
			rec := httptest.NewRecorder()

			// Act
			Write(rec, req, tc.err)

			// Assert
			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
		})
	}
}
