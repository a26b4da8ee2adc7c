package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type LinksRepository struct {
	db *gorm.DB
}

func NewLinksRepository(db *gorm.DB) *LinksRepository {
	return &LinksRepository{db: db}
}

func (r *LinksRepository) GetAllLinks(ctx context.Context) ([]ProductParentLink, error) {
	var links []ProductParentLink
	err := r.db.WithContext(ctx).Order("id").Find(&links).Error
	return links, err
}

func (r *LinksRepository) ListByProduct(ctx context.Context, productID uint) ([]ProductParentLink, error) {
	var links []ProductParentLink
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&links).Error
	return links, err
}

// CreateLink inserts the link. A second link to the same node is rejected
// before insert; the unique index catches concurrent duplicates.
func (r *LinksRepository) CreateLink(ctx context.Context, link *ProductParentLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Select("id").First(&product, link.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		var n int64
		if err := tx.Model(&ProductParentLink{}).
			Where("product_id = ? AND parent_kind = ? AND parent_id = ?", link.ProductID, link.ParentKind, link.ParentID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return invalid("parent", ErrDuplicateLink)
		}
		return translateLinkError(tx.Create(link).Error)
	})
}

// EnsureLink creates the link unless it already exists.
func (r *LinksRepository) EnsureLink(ctx context.Context, productID uint, ref ParentRef) (bool, error) {
	link := ProductParentLink{ProductID: productID, ParentKind: ref.Kind, ParentID: ref.ID}
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND parent_kind = ? AND parent_id = ?", productID, ref.Kind, ref.ID).
		FirstOrCreate(&link)
	return res.RowsAffected > 0, res.Error
}

func translateLinkError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invalid("parent", ErrDuplicateLink)
	}
	return err
}
