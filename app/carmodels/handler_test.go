package carmodels

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// --- Mock Repository ---

// MockCarModelRepo holds Audi(1) -> A3(1) -> 8V(2), 8P(3).
type MockCarModelRepo struct {
	Models    []models.CarModel
	ByProduct map[uint][]models.CarModel
	Err       error
}

func newMockRepo() *MockCarModelRepo {
	cm := func(id uint, name string, parent models.ParentRef) models.CarModel {
		m := models.CarModel{ID: id, Name: name}
		m.SetParent(parent)
		return m
	}
	return &MockCarModelRepo{
		Models: []models.CarModel{
			cm(1, "A3", models.MakeRef(1)),
			cm(2, "8V", models.CarModelRef(1)),
			cm(3, "8P", models.CarModelRef(1)),
		},
		ByProduct: map[uint][]models.CarModel{},
	}
}

func (m *MockCarModelRepo) GetAllCarModels(ctx context.Context) ([]models.CarModel, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Models, nil
}

func (m *MockCarModelRepo) GetCarModel(ctx context.Context, id uint) (*models.CarModel, error) {
	for _, cm := range m.Models {
		if cm.ID == id {
			return &cm, nil
		}
	}
	return nil, models.ErrCarModelNotFound
}

func (m *MockCarModelRepo) ListByParent(ctx context.Context, parent models.ParentRef) ([]models.CarModel, error) {
	list := []models.CarModel{}
	for _, cm := range m.Models {
		if cm.Parent() == parent {
			list = append(list, cm)
		}
	}
	return list, nil
}

func (m *MockCarModelRepo) ListByProduct(ctx context.Context, productID uint) ([]models.CarModel, error) {
	return m.ByProduct[productID], nil
}

type MockMakes struct{}

func (MockMakes) GetMake(ctx context.Context, id uint) (*models.Make, error) {
	if id == 1 {
		return &models.Make{ID: 1, Name: "Audi"}, nil
	}
	return nil, models.ErrMakeNotFound
}

type MockProducts struct{}

func (MockProducts) Exists(ctx context.Context, id uint) error {
	if id == 1 {
		return nil
	}
	return models.ErrProductNotFound
}

type MockHierarchy struct {
	Chains       map[models.ParentRef][]hierarchy.Node
	ChainErr     error
	WriteErr     error
	LastName     string
	LastSel      *hierarchy.ParentSelection
	LastReparent uint
}

func (m *MockHierarchy) CreateCarModel(ctx context.Context, name string, sel hierarchy.ParentSelection) (*models.CarModel, error) {
	m.LastName, m.LastSel = name, &sel
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	ref, err := sel.CarModelParent(0)
	if err != nil {
		return nil, err
	}
	cm := &models.CarModel{ID: 10, Name: name}
	cm.SetParent(ref)
	return cm, nil
}

func (m *MockHierarchy) ReparentCarModel(ctx context.Context, id uint, sel hierarchy.ParentSelection) (*models.CarModel, error) {
	m.LastReparent, m.LastSel = id, &sel
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	ref, err := sel.CarModelParent(id)
	if err != nil {
		return nil, err
	}
	cm := &models.CarModel{ID: id, Name: "8V"}
	cm.SetParent(ref)
	return cm, nil
}

func (m *MockHierarchy) Chain(ctx context.Context, ref models.ParentRef) ([]hierarchy.Node, error) {
	if m.ChainErr != nil {
		return nil, m.ChainErr
	}
	chain, ok := m.Chains[ref]
	if !ok {
		return nil, models.ErrCarModelNotFound
	}
	return chain, nil
}

func newHandler(h *MockHierarchy) *CarModelHandler {
	return NewCarModelHandler(newMockRepo(), MockMakes{}, MockProducts{}, h)
}

// --- Tests: GET /models/... ---

func TestHandleListings(t *testing.T) {
	testCases := []struct {
		name               string
		target             string
		pathKey            string
		pathValue          string
		handle             func(h *CarModelHandler) http.HandlerFunc
		expectedStatusCode int
		expectedNames      []string
	}{
		{
			name:               "All models",
			target:             "/api/models",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetAll },
			expectedStatusCode: http.StatusOK,
			expectedNames:      []string{"A3", "8V", "8P"},
		},
		{
			name:               "Models directly under a make",
			pathKey:            "make_id",
			pathValue:          "1",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByMake },
			expectedStatusCode: http.StatusOK,
			expectedNames:      []string{"A3"},
		},
		{
			name:               "Unknown make",
			pathKey:            "make_id",
			pathValue:          "5",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByMake },
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:               "Sub-models of a model",
			pathKey:            "model_id",
			pathValue:          "1",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByModel },
			expectedStatusCode: http.StatusOK,
			expectedNames:      []string{"8V", "8P"},
		},
		{
			name:               "Leaf model has no sub-models",
			pathKey:            "model_id",
			pathValue:          "2",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByModel },
			expectedStatusCode: http.StatusOK,
			expectedNames:      []string{},
		},
		{
			name:               "Unknown model",
			pathKey:            "model_id",
			pathValue:          "42",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByModel },
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:               "Product without model links",
			pathKey:            "product_id",
			pathValue:          "1",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByProduct },
			expectedStatusCode: http.StatusOK,
			expectedNames:      []string{},
		},
		{
			name:               "Unknown product",
			pathKey:            "product_id",
			pathValue:          "2",
			handle:             func(h *CarModelHandler) http.HandlerFunc { return h.HandleGetByProduct },
			expectedStatusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			handler := newHandler(&MockHierarchy{})
			req := httptest.NewRequest("GET", "/api/models", nil)
			if tc.pathKey != "" {
				req.SetPathValue(tc.pathKey, tc.pathValue)
			}
			rec := httptest.NewRecorder()

			// Act
			tc.handle(handler)(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedNames == nil {
				return
			}
			var resp []CarModelResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			names := []string{}
			for _, m := range resp {
				names = append(names, m.Name)
			}
			assert.Equal(t, tc.expectedNames, names)
		})
	}
}

func TestHandleGetAllRepositoryError(t *testing.T) {
	repo := newMockRepo()
	repo.Err = errors.New("db down")
	handler := NewCarModelHandler(repo, MockMakes{}, MockProducts{}, &MockHierarchy{})
	rec := httptest.NewRecorder()

	handler.HandleGetAll(rec, httptest.NewRequest("GET", "/api/models", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- Tests: GET /models/ancestors/{id} ---

func TestHandleGetAncestors(t *testing.T) {
	chain := []hierarchy.Node{
		{Ref: models.CarModelRef(2), Name: "8V"},
		{Ref: models.CarModelRef(1), Name: "A3"},
		{Ref: models.MakeRef(1), Name: "Audi"},
	}

	testCases := []struct {
		name               string
		id                 string
		mockSetup          func() *MockHierarchy
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name: "Leaf model",
			id:   "2",
			mockSetup: func() *MockHierarchy {
				return &MockHierarchy{Chains: map[models.ParentRef][]hierarchy.Node{models.CarModelRef(2): chain}}
			},
			expectedStatusCode: http.StatusOK,
			expectedBody: `{"id":2,"name":"8V","display_name":"Audi A3 8V","ancestors":[
				{"kind":"carmodel","id":1,"name":"A3"},
				{"kind":"make","id":1,"name":"Audi"}]}`,
		},
		{
			name: "Unknown model",
			id:   "9",
			mockSetup: func() *MockHierarchy {
				return &MockHierarchy{}
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name: "Corrupt chain",
			id:   "2",
			mockSetup: func() *MockHierarchy {
				return &MockHierarchy{ChainErr: &hierarchy.CycleError{Chain: []models.ParentRef{models.CarModelRef(2), models.CarModelRef(2)}}}
			},
			expectedStatusCode: http.StatusInternalServerError,
			expectedBody:       `{"detail":"internal server error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			handler := newHandler(tc.mockSetup())
			req := httptest.NewRequest("GET", "/api/models/ancestors/"+tc.id, nil)
			req.SetPathValue("id", tc.id)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetAncestors(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			}
		})
	}
}

// --- Tests: POST /models, PUT /models/{id}/parent ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:               "Under a make",
			requestBody:        `{"name":"Q5","make_parent":1}`,
			expectedStatusCode: http.StatusCreated,
			expectedBody:       `{"id":10,"name":"Q5","parent_kind":"make","parent_id":1}`,
		},
		{
			name:               "Under a model",
			requestBody:        `{"name":"8Y","model_parent":1}`,
			expectedStatusCode: http.StatusCreated,
			expectedBody:       `{"id":10,"name":"8Y","parent_kind":"carmodel","parent_id":1}`,
		},
		{
			name:               "Both parents",
			requestBody:        `{"name":"8Y","make_parent":1,"model_parent":1}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"detail":"select either a make or a model, not both"}`,
		},
		{
			name:               "No parent",
			requestBody:        `{"name":"8Y"}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"detail":"select either a make or a model"}`,
		},
		{
			name:               "Missing name",
			requestBody:        `{"make_parent":1}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"detail":"validation failed","fields":{"name":"required"}}`,
		},
		{
			name:               "Unknown field",
			requestBody:        `{"name":"8Y","parent":1}`,
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			handler := newHandler(&MockHierarchy{})
			req := httptest.NewRequest("POST", "/api/models", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			// Act
			handler.HandleCreate(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandleReparent(t *testing.T) {
	testCases := []struct {
		name               string
		id                 string
		requestBody        string
		mockSetup          func() *MockHierarchy
		expectedStatusCode int
	}{
		{
			name:               "Move to a make",
			id:                 "2",
			requestBody:        `{"make_parent":1}`,
			mockSetup:          func() *MockHierarchy { return &MockHierarchy{} },
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "Self parent",
			id:                 "2",
			requestBody:        `{"model_parent":2}`,
			mockSetup:          func() *MockHierarchy { return &MockHierarchy{} },
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:        "Descendant as parent",
			id:          "1",
			requestBody: `{"model_parent":2}`,
			mockSetup: func() *MockHierarchy {
				return &MockHierarchy{WriteErr: &models.ValidationError{Field: "model_parent", Err: models.ErrParentCycle}}
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:        "Unknown model",
			id:          "42",
			requestBody: `{"make_parent":1}`,
			mockSetup: func() *MockHierarchy {
				return &MockHierarchy{WriteErr: models.ErrCarModelNotFound}
			},
			expectedStatusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mock := tc.mockSetup()
			handler := newHandler(mock)
			req := httptest.NewRequest("PUT", "/api/models/"+tc.id+"/parent", strings.NewReader(tc.requestBody))
			req.SetPathValue("id", tc.id)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleReparent(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.NotNil(t, mock.LastSel)
		})
	}
}
