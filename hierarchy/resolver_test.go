package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// MockStore is an in-memory NodeStore.
type MockStore struct {
	makes     map[uint]models.Make
	carModels map[uint]models.CarModel
	err       error
}

func (m *MockStore) GetMake(ctx context.Context, id uint) (*models.Make, error) {
	if m.err != nil {
		return nil, m.err
	}
	mk, ok := m.makes[id]
	if !ok {
		return nil, models.ErrMakeNotFound
	}
	return &mk, nil
}

func (m *MockStore) GetCarModel(ctx context.Context, id uint) (*models.CarModel, error) {
	if m.err != nil {
		return nil, m.err
	}
	cm, ok := m.carModels[id]
	if !ok {
		return nil, models.ErrCarModelNotFound
	}
	return &cm, nil
}

func carModel(id uint, name string, parent models.ParentRef) models.CarModel {
	cm := models.CarModel{ID: id, Name: name}
	cm.SetParent(parent)
	return cm
}

// newAudiStore holds Audi(1) -> A3(1) -> 8V(2) and BMW(2) -> M3(3).
func newAudiStore() *MockStore {
	return &MockStore{
		makes: map[uint]models.Make{
			1: {ID: 1, Name: "Audi"},
			2: {ID: 2, Name: "BMW"},
		},
		carModels: map[uint]models.CarModel{
			1: carModel(1, "A3", models.MakeRef(1)),
			2: carModel(2, "8V", models.CarModelRef(1)),
			3: carModel(3, "M3", models.MakeRef(2)),
		},
	}
}

func TestResolveParent(t *testing.T) {
	r := NewResolver(newAudiStore())
	ctx := context.Background()

	tests := []struct {
		name       string
		ref        models.ParentRef
		wantName   string
		wantParent *models.ParentRef
		wantErr    error
	}{
		{
			name:     "make",
			ref:      models.MakeRef(1),
			wantName: "Audi",
		},
		{
			name:       "car model",
			ref:        models.CarModelRef(2),
			wantName:   "8V",
			wantParent: &models.ParentRef{Kind: models.ParentKindCarModel, ID: 1},
		},
		{
			name:    "missing make",
			ref:     models.MakeRef(42),
			wantErr: models.ErrMakeNotFound,
		},
		{
			name:    "missing car model",
			ref:     models.CarModelRef(42),
			wantErr: models.ErrCarModelNotFound,
		},
		{
			name:    "unknown kind",
			ref:     models.ParentRef{Kind: 9, ID: 1},
			wantErr: models.ErrUnknownParentKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := r.ResolveParent(ctx, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, models.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, node.Name)
			assert.Equal(t, tt.wantParent, node.Parent)
			assert.Equal(t, tt.wantParent == nil, node.IsRoot())
		})
	}
}

func TestAncestors(t *testing.T) {
	r := NewResolver(newAudiStore())
	ctx := context.Background()

	ancestors, err := r.Ancestors(ctx, models.CarModelRef(2))
	require.NoError(t, err)
	assert.Equal(t, []models.ParentRef{models.CarModelRef(1), models.MakeRef(1)}, Refs(ancestors))

	ancestors, err = r.Ancestors(ctx, models.MakeRef(1))
	require.NoError(t, err)
	assert.Empty(t, ancestors)

	_, err = r.Ancestors(ctx, models.CarModelRef(42))
	assert.ErrorIs(t, err, models.ErrCarModelNotFound)
}

func TestDisplayName(t *testing.T) {
	r := NewResolver(newAudiStore())
	ctx := context.Background()

	name, err := r.DisplayName(ctx, models.CarModelRef(2))
	require.NoError(t, err)
	assert.Equal(t, "Audi A3 8V", name)

	name, err = r.DisplayName(ctx, models.MakeRef(2))
	require.NoError(t, err)
	assert.Equal(t, "BMW", name)
}

func TestChainDetectsCycles(t *testing.T) {
	store := newAudiStore()
	// A3 -> 8V -> A3
	store.carModels[1] = carModel(1, "A3", models.CarModelRef(2))
	r := NewResolver(store)

	_, err := r.Chain(context.Background(), models.CarModelRef(2))
	require.ErrorIs(t, err, ErrCycleDetected)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []models.ParentRef{
		models.CarModelRef(2),
		models.CarModelRef(1),
		models.CarModelRef(2),
	}, cycle.Chain)
	assert.Contains(t, err.Error(), "carmodel:2 -> carmodel:1 -> carmodel:2")
}

func TestChainKeepsWideIDsApart(t *testing.T) {
	// Arrange
	const wide = uint(1)<<32 + 1
	store := newAudiStore()
	store.carModels[wide] = carModel(wide, "RS3", models.CarModelRef(1))
	r := NewResolver(store)

	// Act
	chain, err := r.Chain(context.Background(), models.CarModelRef(wide))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []models.ParentRef{
		models.CarModelRef(wide),
		models.CarModelRef(1),
		models.MakeRef(1),
	}, Refs(chain))
}

func TestChainRespectsMaxDepth(t *testing.T) {
	store := newAudiStore()
	r := NewResolver(store, WithMaxDepth(2))

	_, err := r.Chain(context.Background(), models.CarModelRef(2))
	assert.ErrorIs(t, err, ErrCycleDetected)

	chain, err := r.Chain(context.Background(), models.CarModelRef(3))
	require.NoError(t, err)
	assert.Len(t, chain, 2)

	assert.Equal(t, DefaultMaxDepth, NewResolver(store, WithMaxDepth(0)).maxDepth)
}

func TestChainPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(&MockStore{err: boom})

	_, err := r.Chain(context.Background(), models.MakeRef(1))
	assert.ErrorIs(t, err, boom)
}

func TestIsDescendantOf(t *testing.T) {
	r := NewResolver(newAudiStore())
	ctx := context.Background()

	tests := []struct {
		name      string
		ref       models.ParentRef
		candidate models.ParentRef
		want      bool
	}{
		{"leaf under make", models.CarModelRef(2), models.MakeRef(1), true},
		{"leaf under model", models.CarModelRef(2), models.CarModelRef(1), true},
		{"other make", models.CarModelRef(2), models.MakeRef(2), false},
		{"not its own descendant", models.CarModelRef(2), models.CarModelRef(2), false},
		{"make has no ancestors", models.MakeRef(1), models.MakeRef(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.IsDescendantOf(ctx, tt.ref, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
