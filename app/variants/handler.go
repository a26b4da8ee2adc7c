package variants

import (
	"context"
	"net/http"
	"strings"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/app/media"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type VariantResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	ProductID   uint   `json:"product_id"`
}

type VariantDetailResponse struct {
	VariantResponse
	Images      []media.ImageResponse      `json:"images"`
	Stats       []media.StatResponse       `json:"stats"`
	AudioTracks []media.AudioTrackResponse `json:"audio_tracks"`
}

type VariantProvider interface {
	GetVariants(ctx context.Context, filters models.VariantFilters) ([]models.Variant, error)
	GetVariantDetail(ctx context.Context, id uint) (*models.Variant, error)
	CreateVariant(ctx context.Context, v *models.Variant) error
	DeleteVariant(ctx context.Context, id uint) ([]string, error)
}

type ProductChecker interface {
	Exists(ctx context.Context, id uint) error
}

type FileStore interface {
	DeleteLater(keys ...string)
	URL(key string) string
}

type VariantHandler struct {
	repo     VariantProvider
	products ProductChecker
	files    FileStore
}

func NewVariantHandler(r VariantProvider, products ProductChecker, files FileStore) *VariantHandler {
	return &VariantHandler{repo: r, products: products, files: files}
}

func toResponse(v models.Variant) VariantResponse {
	return VariantResponse{
		ID:          v.ID,
		Name:        v.Name,
		FullName:    v.FullName,
		Description: v.Description,
		ProductID:   v.ProductID,
	}
}

func (h *VariantHandler) list(w http.ResponseWriter, r *http.Request, filters models.VariantFilters) {
	list, err := h.repo.GetVariants(r.Context(), filters)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	response := make([]VariantResponse, len(list))
	for i, v := range list {
		response[i] = toResponse(v)
	}
	apierror.JSON(w, http.StatusOK, response)
}

// HandleGetAll lists variants, optionally of one product with ?product=.
func (h *VariantHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	productID, err := api.QueryID(r, "product")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.list(w, r, models.VariantFilters{ProductID: productID})
}

func (h *VariantHandler) HandleGetByProduct(w http.ResponseWriter, r *http.Request) {
	h.handleByProduct(w, r, false)
}

// HandleGetByProductWithImages lists the product's variants that have at
// least one image.
func (h *VariantHandler) HandleGetByProductWithImages(w http.ResponseWriter, r *http.Request) {
	h.handleByProduct(w, r, true)
}

func (h *VariantHandler) handleByProduct(w http.ResponseWriter, r *http.Request, withImages bool) {
	productID, err := api.PathID(r, "product_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if err := h.products.Exists(r.Context(), productID); err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.list(w, r, models.VariantFilters{ProductID: &productID, WithImages: withImages})
}

// HandleGetVariant returns the variant with its images (main first), stats
// and audio tracks.
func (h *VariantHandler) HandleGetVariant(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	v, err := h.repo.GetVariantDetail(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	resp := VariantDetailResponse{
		VariantResponse: toResponse(*v),
		Images:          make([]media.ImageResponse, len(v.Images)),
		Stats:           make([]media.StatResponse, len(v.Stats)),
		AudioTracks:     make([]media.AudioTrackResponse, len(v.AudioTracks)),
	}
	for i, img := range v.Images {
		resp.Images[i] = media.ToImage(img, h.files.URL)
	}
	for i, s := range v.Stats {
		resp.Stats[i] = media.ToStat(s)
	}
	for i, a := range v.AudioTracks {
		resp.AudioTracks[i] = media.ToAudioTrack(a, h.files.URL)
	}
	apierror.JSON(w, http.StatusOK, resp)
}

type createInput struct {
	Name        string `json:"name" validate:"required,notblank,max=50"`
	FullName    string `json:"full_name" validate:"required,notblank,max=255"`
	Description string `json:"description"`
	ProductID   uint   `json:"product_id" validate:"required"`
}

func (h *VariantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input createInput
	if err := api.Decode(r, &input); err != nil {
		apierror.Write(w, r, err)
		return
	}

	v := &models.Variant{
		Name:        strings.TrimSpace(input.Name),
		FullName:    strings.TrimSpace(input.FullName),
		Description: input.Description,
		ProductID:   input.ProductID,
	}
	if err := h.repo.CreateVariant(r.Context(), v); err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("variant_id", v.ID).Uint("product_id", v.ProductID).Str("full_name", v.FullName).Msg("variant created")
	apierror.JSON(w, http.StatusCreated, toResponse(*v))
}

// HandleDelete removes the variant with its media. Stored files are
// removed after the response.
func (h *VariantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	keys, err := h.repo.DeleteVariant(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.files.DeleteLater(keys...)
	apierror.Logger(r).Info().Uint("variant_id", id).Int("files", len(keys)).Msg("variant deleted")
	w.WriteHeader(http.StatusNoContent)
}
