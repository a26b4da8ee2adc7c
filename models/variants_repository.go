package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type VariantsRepository struct {
	db *gorm.DB
}

type VariantFilters struct {
	ProductID *uint
	// WithImages keeps only variants that have at least one image.
	WithImages bool
}

func NewVariantsRepository(db *gorm.DB) *VariantsRepository {
	return &VariantsRepository{db: db}
}

func (r *VariantsRepository) GetVariants(ctx context.Context, filters VariantFilters) ([]Variant, error) {
	query := r.db.WithContext(ctx).Model(&Variant{})
	if filters.ProductID != nil {
		query = query.Where("variants.product_id = ?", *filters.ProductID)
	}
	if filters.WithImages {
		query = query.Where("EXISTS (?)", r.db.Table("variant_images").
			Select("1").
			Where("variant_images.variant_id = variants.id"))
	}

	var variants []Variant
	err := query.Order("variants.id").Find(&variants).Error
	return variants, err
}

func (r *VariantsRepository) GetVariant(ctx context.Context, id uint) (*Variant, error) {
	var v Variant
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

// GetVariantDetail loads the variant with its media and stats.
func (r *VariantsRepository) GetVariantDetail(ctx context.Context, id uint) (*Variant, error) {
	var v Variant
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("is_main DESC, id") }).
		Preload("Stats", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("AudioTracks", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&v, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *VariantsRepository) GetByFullName(ctx context.Context, fullName string) (*Variant, error) {
	var v Variant
	if err := r.db.WithContext(ctx).Where("full_name = ?", fullName).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *VariantsRepository) CreateVariant(ctx context.Context, v *Variant) error {
	switch {
	case strings.TrimSpace(v.Name) == "":
		return invalid("name", ErrBlankName)
	case strings.TrimSpace(v.FullName) == "":
		return invalid("full_name", ErrBlankName)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Select("id").First(&product, v.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		return tx.Omit("Product", "Images", "Stats", "AudioTracks").Create(v).Error
	})
}

// DeleteVariant removes the variant with its images, stats and tracks and
// returns the storage keys that backed them.
func (r *VariantsRepository) DeleteVariant(ctx context.Context, id uint) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v Variant
		if err := tx.Select("id").First(&v, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return err
		}
		var images, tracks []string
		if err := tx.Model(&VariantImage{}).Where("variant_id = ?", id).Pluck("image", &images).Error; err != nil {
			return err
		}
		if err := tx.Model(&AudioTrack{}).Where("variant_id = ?", id).Pluck("track", &tracks).Error; err != nil {
			return err
		}
		// Children are removed explicitly so dialects without enforced
		// foreign keys behave the same.
		for _, child := range []any{&VariantImage{}, &Stat{}, &AudioTrack{}} {
			if err := tx.Where("variant_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&v).Error; err != nil {
			return err
		}
		keys = append(images, tracks...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteAll removes every variant with its images, stats and tracks. It
// returns the number of variants and the storage keys of their files.
func (r *VariantsRepository) DeleteAll(ctx context.Context) (int64, []string, error) {
	var (
		count int64
		keys  []string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var images, tracks []string
		if err := tx.Model(&VariantImage{}).Pluck("image", &images).Error; err != nil {
			return err
		}
		if err := tx.Model(&AudioTrack{}).Pluck("track", &tracks).Error; err != nil {
			return err
		}
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, child := range []any{&VariantImage{}, &Stat{}, &AudioTrack{}} {
			if err := all.Delete(child).Error; err != nil {
				return err
			}
		}
		res := all.Delete(&Variant{})
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		keys = append(images, tracks...)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return count, keys, nil
}

// MediaCounts reports how many variants have images and how many have audio.
func (r *VariantsRepository) MediaCounts(ctx context.Context) (withImages, withAudio int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&VariantImage{}).Distinct("variant_id").Count(&withImages).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&AudioTrack{}).Distinct("variant_id").Count(&withAudio).Error; err != nil {
		return 0, 0, err
	}
	return withImages, withAudio, nil
}
