// Package media serves the images, stats and audio tracks of variants.
package media

import (
	"context"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type ImageResponse struct {
	ID        uint   `json:"id"`
	Image     string `json:"image"`
	IsMain    bool   `json:"is_main"`
	VariantID uint   `json:"variant_id"`
}

type StatResponse struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Number     decimal.Decimal `json:"number"`
	Unit       string          `json:"unit"`
	Additional *string         `json:"additional"`
	VariantID  uint            `json:"variant_id"`
}

type AudioTrackResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Track     string `json:"track"`
	VariantID uint   `json:"variant_id"`
}

type ImageStore interface {
	GetImages(ctx context.Context, filters models.ImageFilters) ([]models.VariantImage, error)
	GetImage(ctx context.Context, id uint) (*models.VariantImage, error)
	AddImage(ctx context.Context, img *models.VariantImage) error
	SetMainImage(ctx context.Context, variantID, imageID uint) (*models.VariantImage, error)
	DeleteImage(ctx context.Context, id uint) (string, error)
}

type StatStore interface {
	GetStats(ctx context.Context, variantID *uint) ([]models.Stat, error)
	AddStat(ctx context.Context, stat *models.Stat) error
	DeleteStat(ctx context.Context, id uint) error
}

type AudioStore interface {
	GetAudioTracks(ctx context.Context, variantID *uint) ([]models.AudioTrack, error)
	AddAudioTrack(ctx context.Context, track *models.AudioTrack) error
	DeleteAudioTrack(ctx context.Context, id uint) (string, error)
}

// Store is implemented by models.MediaRepository.
type Store interface {
	ImageStore
	StatStore
	AudioStore
}

type VariantGetter interface {
	GetVariant(ctx context.Context, id uint) (*models.Variant, error)
}

type FileStore interface {
	Save(dir, filename string, r io.Reader) (string, error)
	DeleteLater(keys ...string)
	URL(key string) string
}

type MediaHandler struct {
	repo     Store
	variants VariantGetter
	files    FileStore
}

func NewMediaHandler(r Store, variants VariantGetter, files FileStore) *MediaHandler {
	return &MediaHandler{repo: r, variants: variants, files: files}
}

// ToImage maps an image record, turning its key into a public URL.
func ToImage(img models.VariantImage, url func(string) string) ImageResponse {
	return ImageResponse{ID: img.ID, Image: url(img.Image), IsMain: img.IsMain, VariantID: img.VariantID}
}

func ToStat(s models.Stat) StatResponse {
	return StatResponse{
		ID:         s.ID,
		Name:       s.Name,
		Number:     s.Number,
		Unit:       s.Unit,
		Additional: s.Additional,
		VariantID:  s.VariantID,
	}
}

func ToAudioTrack(a models.AudioTrack, url func(string) string) AudioTrackResponse {
	return AudioTrackResponse{ID: a.ID, Name: a.Name, Track: url(a.Track), VariantID: a.VariantID}
}

// pathVariant resolves the {variant_id} segment to an existing variant.
func (h *MediaHandler) pathVariant(r *http.Request) (uint, error) {
	id, err := api.PathID(r, "variant_id")
	if err != nil {
		return 0, err
	}
	if _, err := h.variants.GetVariant(r.Context(), id); err != nil {
		return 0, err
	}
	return id, nil
}

func writeMapped[T, R any](w http.ResponseWriter, list []T, f func(T) R) {
	response := make([]R, len(list))
	for i, v := range list {
		response[i] = f(v)
	}
	apierror.JSON(w, http.StatusOK, response)
}
