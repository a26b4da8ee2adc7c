package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MediaRepository stores images, stats and audio tracks of variants. Every
// write that checks a per-variant rule locks the variant row first, so
// concurrent writers on the same variant run one after another.
type MediaRepository struct {
	db *gorm.DB
}

type ImageFilters struct {
	VariantID *uint
	ProductID *uint
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// --- Images ---

func (r *MediaRepository) GetImages(ctx context.Context, filters ImageFilters) ([]VariantImage, error) {
	query := r.db.WithContext(ctx).Model(&VariantImage{})
	if filters.VariantID != nil {
		query = query.Where("variant_images.variant_id = ?", *filters.VariantID)
	}
	if filters.ProductID != nil {
		query = query.
			Joins("JOIN variants ON variants.id = variant_images.variant_id").
			Where("variants.product_id = ?", *filters.ProductID)
	}

	var images []VariantImage
	err := query.Order("variant_images.variant_id, variant_images.is_main DESC, variant_images.id").Find(&images).Error
	return images, err
}

// AddImage stores a new image. When it is flagged main, the previous main
// image of the variant is demoted in the same transaction.
func (r *MediaRepository) AddImage(ctx context.Context, img *VariantImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, img.VariantID); err != nil {
			return err
		}
		if img.IsMain {
			if err := demoteMainImages(tx, img.VariantID); err != nil {
				return err
			}
		}
		return tx.Create(img).Error
	})
}

// SetMainImage makes imageID the only main image of its variant.
func (r *MediaRepository) SetMainImage(ctx context.Context, variantID, imageID uint) (*VariantImage, error) {
	var img VariantImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, variantID); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND variant_id = ?", imageID, variantID).First(&img).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrImageNotFound
			}
			return err
		}
		if err := demoteMainImages(tx, variantID); err != nil {
			return err
		}
		img.IsMain = true
		return tx.Model(&img).Update("is_main", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *MediaRepository) GetImage(ctx context.Context, id uint) (*VariantImage, error) {
	var img VariantImage
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *MediaRepository) HasImages(ctx context.Context, variantID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&VariantImage{}).Where("variant_id = ?", variantID).Count(&n).Error
	return n > 0, err
}

// DeleteImage removes the record and returns its storage key.
func (r *MediaRepository) DeleteImage(ctx context.Context, id uint) (string, error) {
	var img VariantImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&img, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrImageNotFound
			}
			return err
		}
		return tx.Delete(&img).Error
	})
	return img.Image, err
}

// --- Stats ---

func (r *MediaRepository) GetStats(ctx context.Context, variantID *uint) ([]Stat, error) {
	query := r.db.WithContext(ctx).Model(&Stat{})
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	}
	var stats []Stat
	err := query.Order("variant_id, id").Find(&stats).Error
	return stats, err
}

// AddStat checks the cap and the name inside the insert transaction.
func (r *MediaRepository) AddStat(ctx context.Context, stat *Stat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, stat.VariantID); err != nil {
			return err
		}
		if err := checkCapAndName(tx, &Stat{}, stat.VariantID, stat.Name, MaxStatsPerVariant); err != nil {
			return err
		}
		return translateNameError(tx.Create(stat).Error)
	})
}

func (r *MediaRepository) DeleteStat(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Stat{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatNotFound
	}
	return nil
}

// --- Audio tracks ---

func (r *MediaRepository) GetAudioTracks(ctx context.Context, variantID *uint) ([]AudioTrack, error) {
	query := r.db.WithContext(ctx).Model(&AudioTrack{})
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	}
	var tracks []AudioTrack
	err := query.Order("variant_id, id").Find(&tracks).Error
	return tracks, err
}

// AddAudioTrack follows the same cap and name rules as AddStat.
func (r *MediaRepository) AddAudioTrack(ctx context.Context, track *AudioTrack) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, track.VariantID); err != nil {
			return err
		}
		if err := checkCapAndName(tx, &AudioTrack{}, track.VariantID, track.Name, MaxAudioTracksPerVariant); err != nil {
			return err
		}
		return translateNameError(tx.Create(track).Error)
	})
}

// DeleteAudioTrack removes the record and returns its storage key.
func (r *MediaRepository) DeleteAudioTrack(ctx context.Context, id uint) (string, error) {
	var track AudioTrack
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&track, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAudioNotFound
			}
			return err
		}
		return tx.Delete(&track).Error
	})
	return track.Track, err
}

// lockVariant takes a row lock on the variant for the rest of the
// transaction. SQLite has no row locks and serializes writers on its own.
func lockVariant(tx *gorm.DB, variantID uint) error {
	var v Variant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&v, variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrVariantNotFound
	}
	return err
}

func demoteMainImages(tx *gorm.DB, variantID uint) error {
	return tx.Model(&VariantImage{}).
		Where("variant_id = ? AND is_main = ?", variantID, true).
		Update("is_main", false).Error
}

func checkCapAndName(tx *gorm.DB, model any, variantID uint, name string, limit int) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", ErrBlankName)
	}
	var names []string
	if err := tx.Model(model).Where("variant_id = ?", variantID).Pluck("name", &names).Error; err != nil {
		return err
	}
	if len(names) >= limit {
		return invalid("variant", fmt.Errorf("%w: a variant holds at most %d", ErrCapExceeded, limit))
	}
	for _, n := range names {
		if n == name {
			return invalid("name", ErrDuplicateName)
		}
	}
	return nil
}

func translateNameError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invalid("name", ErrDuplicateName)
	}
	return err
}

// DeleteAllImages removes every variant image and returns the storage keys
// that backed them.
func (r *MediaRepository) DeleteAllImages(ctx context.Context) ([]string, error) {
	return deleteAllFiles(r.db.WithContext(ctx), &VariantImage{}, "image")
}

// DeleteAllAudioTracks removes every audio track and returns the storage
// keys that backed them.
func (r *MediaRepository) DeleteAllAudioTracks(ctx context.Context) ([]string, error) {
	return deleteAllFiles(r.db.WithContext(ctx), &AudioTrack{}, "track")
}

func deleteAllFiles(db *gorm.DB, model any, column string) ([]string, error) {
	var keys []string
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(model).Pluck(column, &keys).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
