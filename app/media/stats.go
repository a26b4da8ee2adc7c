package media

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

func (h *MediaHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	variantID, err := api.QueryID(r, "variant")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	list, err := h.repo.GetStats(r.Context(), variantID)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeMapped(w, list, ToStat)
}

func (h *MediaHandler) HandleGetStatsByVariant(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathVariant(r)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	list, err := h.repo.GetStats(r.Context(), &id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeMapped(w, list, ToStat)
}

// Number is a pointer: zero is a legal value.
type statInput struct {
	Name       string           `json:"name" validate:"required,notblank,max=12"`
	Number     *decimal.Decimal `json:"number"`
	Unit       string           `json:"unit" validate:"required,notblank,max=12"`
	Additional *string          `json:"additional" validate:"omitempty,max=20"`
	VariantID  uint             `json:"variant_id" validate:"required"`
}

// HandleCreateStat adds a stat. A variant holds at most three, with
// distinct names.
func (h *MediaHandler) HandleCreateStat(w http.ResponseWriter, r *http.Request) {
	var input statInput
	if err := api.Decode(r, &input); err != nil {
		apierror.Write(w, r, err)
		return
	}
	if input.Number == nil {
		apierror.Write(w, r, &models.ValidationError{Field: "number", Err: models.ErrValidation})
		return
	}

	stat := &models.Stat{
		Name:       strings.TrimSpace(input.Name),
		Number:     *input.Number,
		Unit:       strings.TrimSpace(input.Unit),
		Additional: input.Additional,
		VariantID:  input.VariantID,
	}
	if err := h.repo.AddStat(r.Context(), stat); err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("variant_id", stat.VariantID).Str("stat", stat.Name).Msg("stat added")
	apierror.JSON(w, http.StatusCreated, ToStat(*stat))
}

func (h *MediaHandler) HandleDeleteStat(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if err := h.repo.DeleteStat(r.Context(), id); err != nil {
		apierror.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
