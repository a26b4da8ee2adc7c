package media

import (
	"net/http"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp"}

func (h *MediaHandler) toImage(img models.VariantImage) ImageResponse {
	return ToImage(img, h.files.URL)
}

// HandleGetImages lists images, optionally filtered by ?variant= and
// ?product=. Main images come first within a variant.
func (h *MediaHandler) HandleGetImages(w http.ResponseWriter, r *http.Request) {
	var (
		filters models.ImageFilters
		err     error
	)
	if filters.VariantID, err = api.QueryID(r, "variant"); err != nil {
		apierror.Write(w, r, err)
		return
	}
	if filters.ProductID, err = api.QueryID(r, "product"); err != nil {
		apierror.Write(w, r, err)
		return
	}

	list, err := h.repo.GetImages(r.Context(), filters)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeMapped(w, list, h.toImage)
}

func (h *MediaHandler) HandleGetImagesByVariant(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathVariant(r)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	list, err := h.repo.GetImages(r.Context(), models.ImageFilters{VariantID: &id})
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeMapped(w, list, h.toImage)
}

// HandleCreateImage stores an uploaded image. With is_main set, the
// variant's previous main image is demoted.
func (h *MediaHandler) HandleCreateImage(w http.ResponseWriter, r *http.Request) {
	if err := api.ParseForm(w, r); err != nil {
		apierror.Write(w, r, err)
		return
	}
	variantID, err := api.FormID(r, "variant_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	isMain, err := api.FormBool(r, "is_main")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	f, fh, err := api.FormFile(r, "image", true, imageExts...)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	defer f.Close()

	key, err := h.files.Save(storage.DirVariantImages, fh.Filename, f)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	img := &models.VariantImage{Image: key, IsMain: isMain, VariantID: variantID}
	if err := h.repo.AddImage(r.Context(), img); err != nil {
		h.files.DeleteLater(key)
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("variant_id", variantID).Uint("image_id", img.ID).Bool("main", isMain).Msg("image added")
	apierror.JSON(w, http.StatusCreated, h.toImage(*img))
}

// HandleSetMainImage makes the image the only main image of its variant.
func (h *MediaHandler) HandleSetMainImage(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	current, err := h.repo.GetImage(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	img, err := h.repo.SetMainImage(r.Context(), current.VariantID, id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	apierror.JSON(w, http.StatusOK, h.toImage(*img))
}

func (h *MediaHandler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	key, err := h.repo.DeleteImage(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.files.DeleteLater(key)
	w.WriteHeader(http.StatusNoContent)
}
