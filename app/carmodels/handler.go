package carmodels

import (
	"context"
	"net/http"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type CarModelResponse struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"`
	ParentKind models.ParentKind `json:"parent_kind"`
	ParentID   uint              `json:"parent_id"`
}

type NodeResponse struct {
	Kind models.ParentKind `json:"kind"`
	ID   uint              `json:"id"`
	Name string            `json:"name"`
}

type AncestorsResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Ancestors   []NodeResponse `json:"ancestors"`
}

type CarModelProvider interface {
	GetAllCarModels(ctx context.Context) ([]models.CarModel, error)
	GetCarModel(ctx context.Context, id uint) (*models.CarModel, error)
	ListByParent(ctx context.Context, parent models.ParentRef) ([]models.CarModel, error)
	ListByProduct(ctx context.Context, productID uint) ([]models.CarModel, error)
}

type MakeGetter interface {
	GetMake(ctx context.Context, id uint) (*models.Make, error)
}

type ProductChecker interface {
	Exists(ctx context.Context, id uint) error
}

// HierarchyService applies the parent rules on writes and walks chains on
// reads.
type HierarchyService interface {
	CreateCarModel(ctx context.Context, name string, sel hierarchy.ParentSelection) (*models.CarModel, error)
	ReparentCarModel(ctx context.Context, id uint, sel hierarchy.ParentSelection) (*models.CarModel, error)
	Chain(ctx context.Context, ref models.ParentRef) ([]hierarchy.Node, error)
}

type CarModelHandler struct {
	repo      CarModelProvider
	makes     MakeGetter
	products  ProductChecker
	hierarchy HierarchyService
}

func NewCarModelHandler(r CarModelProvider, makes MakeGetter, products ProductChecker, h HierarchyService) *CarModelHandler {
	return &CarModelHandler{repo: r, makes: makes, products: products, hierarchy: h}
}

func toResponse(m models.CarModel) CarModelResponse {
	return CarModelResponse{ID: m.ID, Name: m.Name, ParentKind: m.ParentKind, ParentID: m.ParentID}
}

func writeList(w http.ResponseWriter, list []models.CarModel) {
	response := make([]CarModelResponse, len(list))
	for i, m := range list {
		response[i] = toResponse(m)
	}
	apierror.JSON(w, http.StatusOK, response)
}

func (h *CarModelHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.GetAllCarModels(r.Context())
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeList(w, list)
}

// HandleGetByMake lists the models whose parent is the make itself.
func (h *CarModelHandler) HandleGetByMake(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "make_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if _, err := h.makes.GetMake(r.Context(), id); err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.writeChildren(w, r, models.MakeRef(id))
}

// HandleGetByModel lists the direct sub-models of a model.
func (h *CarModelHandler) HandleGetByModel(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "model_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if _, err := h.repo.GetCarModel(r.Context(), id); err != nil {
		apierror.Write(w, r, err)
		return
	}
	h.writeChildren(w, r, models.CarModelRef(id))
}

func (h *CarModelHandler) writeChildren(w http.ResponseWriter, r *http.Request, parent models.ParentRef) {
	list, err := h.repo.ListByParent(r.Context(), parent)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeList(w, list)
}

func (h *CarModelHandler) HandleGetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := api.PathID(r, "product_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if err := h.products.Exists(r.Context(), productID); err != nil {
		apierror.Write(w, r, err)
		return
	}
	list, err := h.repo.ListByProduct(r.Context(), productID)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	writeList(w, list)
}

// HandleGetAncestors returns the model's ancestors, nearest first, and its
// root-to-leaf display name.
func (h *CarModelHandler) HandleGetAncestors(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	chain, err := h.hierarchy.Chain(r.Context(), models.CarModelRef(id))
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	ancestors := make([]NodeResponse, 0, len(chain)-1)
	for _, n := range chain[1:] {
		ancestors = append(ancestors, NodeResponse{Kind: n.Ref.Kind, ID: n.Ref.ID, Name: n.Name})
	}
	apierror.JSON(w, http.StatusOK, AncestorsResponse{
		ID:          id,
		Name:        chain[0].Name,
		DisplayName: hierarchy.JoinNames(chain),
		Ancestors:   ancestors,
	})
}

type createInput struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
	hierarchy.ParentSelection
}

func (h *CarModelHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input createInput
	if err := api.Decode(r, &input); err != nil {
		apierror.Write(w, r, err)
		return
	}

	m, err := h.hierarchy.CreateCarModel(r.Context(), input.Name, input.ParentSelection)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("model_id", m.ID).Stringer("parent", m.Parent()).Msg("car model created")
	apierror.JSON(w, http.StatusCreated, toResponse(*m))
}

// HandleReparent moves a model under another make or model.
func (h *CarModelHandler) HandleReparent(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	var sel hierarchy.ParentSelection
	if err := api.Decode(r, &sel); err != nil {
		apierror.Write(w, r, err)
		return
	}

	m, err := h.hierarchy.ReparentCarModel(r.Context(), id, sel)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("model_id", m.ID).Stringer("parent", m.Parent()).Msg("car model moved")
	apierror.JSON(w, http.StatusOK, toResponse(*m))
}
