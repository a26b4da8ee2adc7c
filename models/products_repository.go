package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	// Ancestor restricts the result to products explicitly linked to the node.
	Ancestor     *ParentRef
	NameContains string
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetAllProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Order("products.id").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{})

	// Filter
	if filters.Ancestor != nil {
		query = query.Where("EXISTS (?)", linkedTo(r.db, *filters.Ancestor))
	}
	if filters.NameContains != "" {
		query = query.Where("LOWER(products.name) LIKE LOWER(?)", "%"+filters.NameContains+"%")
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.Order("products.id").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Links", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

// Exists returns ErrProductNotFound when there is no product with id.
func (r *ProductsRepository) Exists(ctx context.Context, id uint) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListByAncestor returns the products linked to exactly this node. Products
// linked only to a descendant are not included.
func (r *ProductsRepository) ListByAncestor(ctx context.Context, ref ParentRef) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).
		Where("EXISTS (?)", linkedTo(r.db, ref)).
		Order("products.id").
		Find(&products).Error
	return products, err
}

// ListWithVariantImages returns products that own at least one variant with
// at least one image.
func (r *ProductsRepository) ListWithVariantImages(ctx context.Context) ([]Product, error) {
	withImage := r.db.Table("variants").
		Select("1").
		Joins("JOIN variant_images ON variant_images.variant_id = variants.id").
		Where("variants.product_id = products.id")

	var products []Product
	err := r.db.WithContext(ctx).
		Where("EXISTS (?)", withImage).
		Order("products.id").
		Find(&products).Error
	return products, err
}

func (r *ProductsRepository) Create(ctx context.Context, product *Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateWithLinks stores the product and one link per node in a single
// transaction.
func (r *ProductsRepository) CreateWithLinks(ctx context.Context, product *Product, parents []ParentRef) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variants", "Links").Create(product).Error; err != nil {
			return err
		}
		for _, ref := range parents {
			link := ProductParentLink{ProductID: product.ID, ParentKind: ref.Kind, ParentID: ref.ID}
			if err := tx.Create(&link).Error; err != nil {
				return translateLinkError(err)
			}
			product.Links = append(product.Links, link)
		}
		return nil
	})
}

func (r *ProductsRepository) GetOrCreateByName(ctx context.Context, name string) (*Product, bool, error) {
	product := Product{Name: name}
	res := r.db.WithContext(ctx).Where(Product{Name: name}).FirstOrCreate(&product)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &product, res.RowsAffected > 0, nil
}

// DeleteAll removes every product; links and variants go with them.
func (r *ProductsRepository) DeleteAll(ctx context.Context) (links, products int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ProductParentLink{})
		if res.Error != nil {
			return res.Error
		}
		links = res.RowsAffected
		res = tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Product{})
		if res.Error != nil {
			return res.Error
		}
		products = res.RowsAffected
		return nil
	})
	return links, products, err
}

func linkedTo(db *gorm.DB, ref ParentRef) *gorm.DB {
	return db.Table("product_parent_links").
		Select("1").
		Where("product_parent_links.product_id = products.id").
		Where("product_parent_links.parent_kind = ? AND product_parent_links.parent_id = ?", ref.Kind, ref.ID)
}
