package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type MakesRepository struct {
	db *gorm.DB
}

func NewMakesRepository(db *gorm.DB) *MakesRepository {
	return &MakesRepository{db: db}
}

func (r *MakesRepository) GetAllMakes(ctx context.Context) ([]Make, error) {
	var makes []Make
	err := r.db.WithContext(ctx).Order("name").Find(&makes).Error
	return makes, err
}

func (r *MakesRepository) GetMake(ctx context.Context, id uint) (*Make, error) {
	var m Make
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMakeNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MakesRepository) GetByName(ctx context.Context, name string) (*Make, error) {
	var m Make
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMakeNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByProduct returns the makes a product is linked to.
func (r *MakesRepository) ListByProduct(ctx context.Context, productID uint) ([]Make, error) {
	ids := r.db.Model(&ProductParentLink{}).
		Select("parent_id").
		Where("product_id = ? AND parent_kind = ?", productID, ParentKindMake)

	var makes []Make
	err := r.db.WithContext(ctx).Where("id IN (?)", ids).Order("name").Find(&makes).Error
	return makes, err
}

func (r *MakesRepository) CreateMake(ctx context.Context, m *Make) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Make{}).Where("name = ?", m.Name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return invalid("name", ErrDuplicateName)
		}
		err := tx.Create(m).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return invalid("name", ErrDuplicateName)
		}
		return err
	})
}

func (r *MakesRepository) GetOrCreateMake(ctx context.Context, name string) (*Make, bool, error) {
	m := Make{Name: name}
	res := r.db.WithContext(ctx).Where(Make{Name: name}).FirstOrCreate(&m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &m, res.RowsAffected > 0, nil
}

// DeleteMake removes the make and returns it so the caller can drop the icon.
// A make that still has car models or product links is kept.
func (r *MakesRepository) DeleteMake(ctx context.Context, id uint) (*Make, error) {
	var m Make
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMakeNotFound
			}
			return err
		}
		var children, links int64
		if err := tx.Model(&CarModel{}).Where("parent_kind = ? AND parent_id = ?", ParentKindMake, id).Count(&children).Error; err != nil {
			return err
		}
		if err := tx.Model(&ProductParentLink{}).Where("parent_kind = ? AND parent_id = ?", ParentKindMake, id).Count(&links).Error; err != nil {
			return err
		}
		if children+links > 0 {
			return invalid("id", ErrInUse)
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
