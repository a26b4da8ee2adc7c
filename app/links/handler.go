package links

import (
	"context"
	"net/http"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// ConnectionResponse is one product-parent link. Exactly one of MakeParent
// and ModelParent is set.
type ConnectionResponse struct {
	ID          uint  `json:"id"`
	ProductID   uint  `json:"product_id"`
	MakeParent  *uint `json:"make_parent"`
	ModelParent *uint `json:"model_parent"`
}

type LinkProvider interface {
	GetAllLinks(ctx context.Context) ([]models.ProductParentLink, error)
	ListByProduct(ctx context.Context, productID uint) ([]models.ProductParentLink, error)
}

type ProductLinker interface {
	LinkProduct(ctx context.Context, productID uint, sel hierarchy.ParentSelection) (*models.ProductParentLink, error)
}

type LinkHandler struct {
	repo   LinkProvider
	linker ProductLinker
}

func NewLinkHandler(r LinkProvider, linker ProductLinker) *LinkHandler {
	return &LinkHandler{repo: r, linker: linker}
}

func toResponse(l models.ProductParentLink) ConnectionResponse {
	resp := ConnectionResponse{ID: l.ID, ProductID: l.ProductID}
	id := l.ParentID
	if l.Parent().IsMake() {
		resp.MakeParent = &id
	} else {
		resp.ModelParent = &id
	}
	return resp
}

// HandleGetAll lists every connection, or those of one product with
// ?product=.
func (h *LinkHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	productID, err := api.QueryID(r, "product")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	var list []models.ProductParentLink
	if productID != nil {
		list, err = h.repo.ListByProduct(r.Context(), *productID)
	} else {
		list, err = h.repo.GetAllLinks(r.Context())
	}
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	response := make([]ConnectionResponse, len(list))
	for i, l := range list {
		response[i] = toResponse(l)
	}
	apierror.JSON(w, http.StatusOK, response)
}

type createInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	hierarchy.ParentSelection
}

// HandleCreate connects a product to a single make or model. Ancestors of
// the node are not connected implicitly.
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input createInput
	if err := api.Decode(r, &input); err != nil {
		apierror.Write(w, r, err)
		return
	}

	link, err := h.linker.LinkProduct(r.Context(), input.ProductID, input.ParentSelection)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("product_id", link.ProductID).Stringer("parent", link.Parent()).Msg("product connected")
	apierror.JSON(w, http.StatusCreated, toResponse(*link))
}
