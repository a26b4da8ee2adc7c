package hierarchy

import (
	"context"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type makeGetter interface {
	GetMake(ctx context.Context, id uint) (*models.Make, error)
}

type carModelGetter interface {
	GetCarModel(ctx context.Context, id uint) (*models.CarModel, error)
}

type store struct {
	makes     makeGetter
	carModels carModelGetter
}

// NewStore combines the make and car model repositories into a NodeStore.
func NewStore(makes makeGetter, carModels carModelGetter) NodeStore {
	return store{makes: makes, carModels: carModels}
}

func (s store) GetMake(ctx context.Context, id uint) (*models.Make, error) {
	return s.makes.GetMake(ctx, id)
}

func (s store) GetCarModel(ctx context.Context, id uint) (*models.CarModel, error) {
	return s.carModels.GetCarModel(ctx, id)
}
