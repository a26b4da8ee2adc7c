package models_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AsyncXeNo/zenrenne-backend/app/database"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLiteMemory("models-" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// seed holds Audi -> A3 -> 8V plus BMW -> M3.
type seed struct {
	audi, bmw  *models.Make
	a3, v8, m3 *models.CarModel
}

func seedTaxonomy(t *testing.T, db *gorm.DB) seed {
	t.Helper()
	ctx := context.Background()
	makes := models.NewMakesRepository(db)
	carModels := models.NewCarModelsRepository(db)

	var s seed
	s.audi = &models.Make{Name: "Audi"}
	s.bmw = &models.Make{Name: "BMW"}
	require.NoError(t, makes.CreateMake(ctx, s.audi))
	require.NoError(t, makes.CreateMake(ctx, s.bmw))

	s.a3 = &models.CarModel{Name: "A3"}
	s.a3.SetParent(s.audi.Ref())
	require.NoError(t, carModels.CreateCarModel(ctx, s.a3))

	s.v8 = &models.CarModel{Name: "8V"}
	s.v8.SetParent(s.a3.Ref())
	require.NoError(t, carModels.CreateCarModel(ctx, s.v8))

	s.m3 = &models.CarModel{Name: "M3"}
	s.m3.SetParent(s.bmw.Ref())
	require.NoError(t, carModels.CreateCarModel(ctx, s.m3))
	return s
}

func seedVariant(t *testing.T, db *gorm.DB, name string) *models.Variant {
	t.Helper()
	ctx := context.Background()
	product := &models.Product{Name: "Exhaust " + name}
	require.NoError(t, models.NewProductsRepository(db).Create(ctx, product))
	v := &models.Variant{Name: name, FullName: "Full " + name, ProductID: product.ID}
	require.NoError(t, models.NewVariantsRepository(db).CreateVariant(ctx, v))
	return v
}
