package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CarModelsRepository struct {
	db *gorm.DB
}

func NewCarModelsRepository(db *gorm.DB) *CarModelsRepository {
	return &CarModelsRepository{db: db}
}

func (r *CarModelsRepository) GetAllCarModels(ctx context.Context) ([]CarModel, error) {
	var list []CarModel
	err := r.db.WithContext(ctx).Order("id").Find(&list).Error
	return list, err
}

func (r *CarModelsRepository) GetCarModel(ctx context.Context, id uint) (*CarModel, error) {
	var m CarModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarModelNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByName finds the model called name directly under parent.
func (r *CarModelsRepository) GetByName(ctx context.Context, name string, parent ParentRef) (*CarModel, error) {
	var m CarModel
	err := r.db.WithContext(ctx).
		Where("name = ? AND parent_kind = ? AND parent_id = ?", name, parent.Kind, parent.ID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByParent returns the direct children of a node, not its subtree.
func (r *CarModelsRepository) ListByParent(ctx context.Context, parent ParentRef) ([]CarModel, error) {
	var list []CarModel
	err := r.db.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("name").
		Find(&list).Error
	return list, err
}

// ListByProduct returns the car models a product is linked to.
func (r *CarModelsRepository) ListByProduct(ctx context.Context, productID uint) ([]CarModel, error) {
	ids := r.db.Model(&ProductParentLink{}).
		Select("parent_id").
		Where("product_id = ? AND parent_kind = ?", productID, ParentKindCarModel)

	var list []CarModel
	err := r.db.WithContext(ctx).Where("id IN (?)", ids).Order("id").Find(&list).Error
	return list, err
}

// ParentModelIDs returns the ids of car models that have at least one
// sub-model.
func (r *CarModelsRepository) ParentModelIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&CarModel{}).
		Distinct("parent_id").
		Where("parent_kind = ?", ParentKindCarModel).
		Pluck("parent_id", &ids).Error
	return ids, err
}

func (r *CarModelsRepository) CreateCarModel(ctx context.Context, m *CarModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueInScope(tx, m); err != nil {
			return err
		}
		err := tx.Create(m).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return invalid("name", ErrDuplicateName)
		}
		return err
	})
}

// NodeReader reads the nodes a parent chain walks through.
type NodeReader interface {
	GetMake(ctx context.Context, id uint) (*Make, error)
	GetCarModel(ctx context.Context, id uint) (*CarModel, error)
}

// ParentGuard vets a move inside the update transaction. nodes reads
// through that transaction.
type ParentGuard func(nodes NodeReader) error

// lockedNodes locks every car model row it returns until the transaction
// ends, so a concurrent move of a node on the walked chain waits for it.
// Makes never move and are read without a lock.
type lockedNodes struct {
	tx *gorm.DB
}

func (n lockedNodes) GetMake(ctx context.Context, id uint) (*Make, error) {
	return NewMakesRepository(n.tx).GetMake(ctx, id)
}

func (n lockedNodes) GetCarModel(ctx context.Context, id uint) (*CarModel, error) {
	var m CarModel
	err := n.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateCarModelParent moves a model under parent. The model row is locked
// first and guard, when set, runs before anything is written.
func (r *CarModelsRepository) UpdateCarModelParent(ctx context.Context, id uint, parent ParentRef, guard ParentGuard) (*CarModel, error) {
	var m *CarModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		nodes := lockedNodes{tx: tx}
		var err error
		if m, err = nodes.GetCarModel(ctx, id); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(nodes); err != nil {
				return err
			}
		}
		m.SetParent(parent)
		if err := ensureUniqueInScope(tx, m); err != nil {
			return err
		}
		return tx.Model(m).Select("parent_kind", "parent_id").Updates(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrCreateCarModel finds a model by name under parent, creating it when
// missing.
func (r *CarModelsRepository) GetOrCreateCarModel(ctx context.Context, name string, parent ParentRef) (*CarModel, bool, error) {
	m := CarModel{Name: name}
	m.SetParent(parent)
	res := r.db.WithContext(ctx).
		Where("name = ? AND parent_kind = ? AND parent_id = ?", name, parent.Kind, parent.ID).
		FirstOrCreate(&m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &m, res.RowsAffected > 0, nil
}

func ensureUniqueInScope(tx *gorm.DB, m *CarModel) error {
	var n int64
	q := tx.Model(&CarModel{}).
		Where("name = ? AND parent_kind = ? AND parent_id = ?", m.Name, m.ParentKind, m.ParentID)
	if m.ID != 0 {
		q = q.Where("id <> ?", m.ID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return invalid("name", ErrDuplicateName)
	}
	return nil
}

// DeleteByName removes the model called name under parent. A model that
// still has sub-models or product links is kept.
func (r *CarModelsRepository) DeleteByName(ctx context.Context, name string, parent ParentRef) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m CarModel
		err := tx.Where("name = ? AND parent_kind = ? AND parent_id = ?", name, parent.Kind, parent.ID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCarModelNotFound
		}
		if err != nil {
			return err
		}
		var children, links int64
		if err := tx.Model(&CarModel{}).Where("parent_kind = ? AND parent_id = ?", ParentKindCarModel, m.ID).Count(&children).Error; err != nil {
			return err
		}
		if err := tx.Model(&ProductParentLink{}).Where("parent_kind = ? AND parent_id = ?", ParentKindCarModel, m.ID).Count(&links).Error; err != nil {
			return err
		}
		if children+links > 0 {
			return invalid("name", ErrInUse)
		}
		return tx.Delete(&m).Error
	})
}
