package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type statInput struct {
	Name   string          `json:"name" validate:"required,max=12"`
	Number decimal.Decimal `json:"number" validate:"required"`
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		expectedStatus int
		expectedFields map[string]string
	}{
		{
			name: "valid",
			body: `{"name":"Weight","number":"12.5"}`,
		},
		{
			name:           "invalid JSON",
			body:           `{invalid`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown field",
			body:           `{"name":"Weight","number":"1","colour":"red"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "field errors use json names",
			body:           `{"name":"Much too long a name"}`,
			expectedStatus: http.StatusBadRequest,
			expectedFields: map[string]string{"name": "max", "number": "required"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/stats", strings.NewReader(tc.body))

			var in statInput
			err := Decode(req, &in)

			if tc.expectedStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, "Weight", in.Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expectedStatus, apierror.Status(err))
			if tc.expectedFields != nil {
				rec := httptest.NewRecorder()
				apierror.Write(rec, req, err)
				assert.JSONEq(t, `{"detail":"validation failed","fields":{"name":"max","number":"required"}}`, rec.Body.String())
			}
		})
	}
}

func TestPathID(t *testing.T) {
	testCases := []struct {
		value   string
		want    uint
		wantErr bool
	}{
		{value: "7", want: 7},
		{value: "0", wantErr: true},
		{value: "abc", wantErr: true},
		{value: "-1", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/variants/"+tc.value, nil)
			req.SetPathValue("id", tc.value)

			id, err := PathID(req, "id")
			if tc.wantErr {
				assert.ErrorIs(t, err, models.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestQueryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stats?variant=3", nil)
	id, err := QueryID(req, "variant")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, uint(3), *id)

	id, err = QueryID(req, "product")
	require.NoError(t, err)
	assert.Nil(t, id)

	req = httptest.NewRequest(http.MethodGet, "/stats?variant=x", nil)
	_, err = QueryID(req, "variant")
	assert.Equal(t, http.StatusBadRequest, apierror.Status(err))
}

func TestPagination(t *testing.T) {
	testCases := []struct {
		query      string
		wantOffset int
		wantLimit  int
	}{
		{"", 0, DefaultLimit},
		{"offset=20&limit=5", 20, 5},
		{"offset=-3&limit=0", 0, 1},
		{"limit=1000", 0, MaxLimit},
		{"offset=x&limit=y", 0, DefaultLimit},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/products?"+tc.query, nil)
			offset, limit := Pagination(req)
			assert.Equal(t, tc.wantOffset, offset)
			assert.Equal(t, tc.wantLimit, limit)
		})
	}
}
