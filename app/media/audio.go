package media

import (
	"net/http"
	"strings"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

func (h *MediaHandler) toAudioTrack(a models.AudioTrack) AudioTrackResponse {
	return ToAudioTrack(a, h.files.URL)
}

func (h *MediaHandler) HandleGetAudioTracks(w http.ResponseWriter, r *http.Request) {
	variantID, err := api.QueryID(r, "variant")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	list, err := h.repo.GetAudioTracks(r.Context(), variantID)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeMapped(w, list, h.toAudioTrack)
}

func (h *MediaHandler) HandleGetAudioTracksByVariant(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathVariant(r)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	list, err := h.repo.GetAudioTracks(r.Context(), &id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeMapped(w, list, h.toAudioTrack)
}

type audioInput struct {
	Name      string `form:"name" validate:"required,notblank,max=20"`
	VariantID uint   `form:"variant_id" validate:"required"`
}

// HandleCreateAudioTrack stores an uploaded .mp3 under the variant, subject
// to the same cap and name rules as stats.
func (h *MediaHandler) HandleCreateAudioTrack(w http.ResponseWriter, r *http.Request) {
	if err := api.ParseForm(w, r); err != nil {
		apierror.Write(w, r, err)
		return
	}
	variantID, err := api.FormID(r, "variant_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	input := audioInput{Name: strings.TrimSpace(r.FormValue("name")), VariantID: variantID}
	if err := api.Validate(input); err != nil {
		apierror.Write(w, r, err)
		return
	}
	f, fh, err := api.FormFile(r, "track", true, ".mp3")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	defer f.Close()

	key, err := h.files.Save(storage.DirAudioTracks, fh.Filename, f)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	track := &models.AudioTrack{Name: input.Name, Track: key, VariantID: variantID}
	if err := h.repo.AddAudioTrack(r.Context(), track); err != nil {
		h.files.DeleteLater(key)
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("variant_id", variantID).Str("track", track.Name).Msg("audio track added")
	apierror.JSON(w, http.StatusCreated, h.toAudioTrack(*track))
}

func (h *MediaHandler) HandleDeleteAudioTrack(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	key, err := h.repo.DeleteAudioTrack(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.files.DeleteLater(key)
	w.WriteHeader(http.StatusNoContent)
}
