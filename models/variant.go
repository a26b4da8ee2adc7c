package models

import "github.com/shopspring/decimal"

const (
	// MaxStatsPerVariant and MaxAudioTracksPerVariant are enforced inside the
	// insert transaction, not by a database constraint.
	MaxStatsPerVariant       = 3
	MaxAudioTracksPerVariant = 3
)

// Variant is one configuration of a Product, e.g. "Titanium Catback".
type Variant struct {
	ID          uint           `gorm:"primaryKey"`
	Name        string         `gorm:"size:50;not null"`
	FullName    string         `gorm:"size:255;not null;index"`
	Description string         `gorm:"type:text"`
	ProductID   uint           `gorm:"not null;index"`
	Product     *Product       `gorm:"foreignKey:ProductID"`
	Images      []VariantImage `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	Stats       []Stat         `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	AudioTracks []AudioTrack   `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

func (v *Variant) TableName() string {
	return "variants"
}

// VariantImage is a stored picture of a variant. At most one per variant
// is main.
type VariantImage struct {
	ID        uint   `gorm:"primaryKey"`
	Image     string `gorm:"size:255;not null"`
	IsMain    bool   `gorm:"not null;default:false"`
	VariantID uint   `gorm:"not null;index"`
}

func (i *VariantImage) TableName() string {
	return "variant_images"
}

// Stat is a figure shown on a variant page, e.g. "Weight 12.4 kg".
type Stat struct {
	ID         uint            `gorm:"primaryKey"`
	Name       string          `gorm:"size:12;not null;uniqueIndex:idx_stats_variant_name,priority:2"`
	Number     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Unit       string          `gorm:"size:12;not null"`
	Additional *string         `gorm:"size:20"`
	VariantID  uint            `gorm:"not null;uniqueIndex:idx_stats_variant_name,priority:1"`
}

func (s *Stat) TableName() string {
	return "stats"
}

// AudioTrack is a sound clip of the exhaust.
type AudioTrack struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:20;not null;uniqueIndex:idx_audio_tracks_variant_name,priority:2"`
	Track     string `gorm:"size:255;not null"`
	VariantID uint   `gorm:"not null;uniqueIndex:idx_audio_tracks_variant_name,priority:1"`
}

func (a *AudioTrack) TableName() string {
	return "audio_tracks"
}

// AllModels lists every entity in migration order.
func AllModels() []any {
	return []any{
		&Make{},
		&CarModel{},
		&Product{},
		&ProductParentLink{},
		&Variant{},
		&VariantImage{},
		&Stat{},
		&AudioTrack{},
	}
}
