package products

import (
	"context"
	"net/http"
	"strings"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Product struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Variant struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

type Connection struct {
	Kind models.ParentKind `json:"kind"`
	ID   uint              `json:"id"`
}

type ProductDetail struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Variants    []Variant    `json:"variants"`
	Connections []Connection `json:"connections"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	ListByAncestor(ctx context.Context, ref models.ParentRef) ([]models.Product, error)
	ListWithVariantImages(ctx context.Context) ([]models.Product, error)
}

// NodeResolver confirms that a make or car model exists.
type NodeResolver interface {
	Exists(ctx context.Context, ref models.ParentRef) error
}

type ProductCreator interface {
	CreateProduct(ctx context.Context, name string, attachTo *models.ParentRef) (*models.Product, error)
}

type ProductHandler struct {
	repo    ProductProvider
	nodes   NodeResolver
	creator ProductCreator
}

func NewProductHandler(r ProductProvider, nodes NodeResolver, creator ProductCreator) *ProductHandler {
	return &ProductHandler{
		repo:    r,
		nodes:   nodes,
		creator: creator,
	}
}

func toProducts(res []models.Product) []Product {
	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = Product{ID: p.ID, Name: p.Name}
	}
	return products
}

// HandleGet lists products a page at a time, optionally filtered by name.
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offset, limit := api.Pagination(r)

	filters := models.ProductFilters{
		NameContains: strings.TrimSpace(r.URL.Query().Get("name")),
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.JSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: toProducts(res),
	})
}

func (h *ProductHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	// Map response
	variants := make([]Variant, len(product.Variants))
	for i, v := range product.Variants {
		variants[i] = Variant{ID: v.ID, Name: v.Name, FullName: v.FullName}
	}
	connections := make([]Connection, len(product.Links))
	for i, l := range product.Links {
		connections[i] = Connection{Kind: l.ParentKind, ID: l.ParentID}
	}

	apierror.JSON(w, http.StatusOK, ProductDetail{
		ID:          product.ID,
		Name:        product.Name,
		Variants:    variants,
		Connections: connections,
	})
}

// HandleGetByMake lists products explicitly connected to the make.
func (h *ProductHandler) HandleGetByMake(w http.ResponseWriter, r *http.Request) {
	h.handleByAncestor(w, r, "make_id", models.MakeRef)
}

// HandleGetByModel lists products explicitly connected to the model.
func (h *ProductHandler) HandleGetByModel(w http.ResponseWriter, r *http.Request) {
	h.handleByAncestor(w, r, "model_id", models.CarModelRef)
}

func (h *ProductHandler) handleByAncestor(w http.ResponseWriter, r *http.Request, param string, ref func(uint) models.ParentRef) {
	id, err := api.PathID(r, param)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	node := ref(id)
	if err := h.nodes.Exists(r.Context(), node); err != nil {
		apierror.Write(w, r, err)
		return
	}

	res, err := h.repo.ListByAncestor(r.Context(), node)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	apierror.JSON(w, http.StatusOK, toProducts(res))
}

// HandleGetWithImages lists products with at least one imaged variant.
func (h *ProductHandler) HandleGetWithImages(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.ListWithVariantImages(r.Context())
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	apierror.JSON(w, http.StatusOK, toProducts(res))
}

type createInput struct {
	Name       string `json:"name" validate:"required,notblank,max=255"`
	ParentKind string `json:"parent_kind" validate:"omitempty,oneof=make carmodel"`
	ParentID   uint   `json:"parent_id"`
}

// HandleCreate stores a product. With parent_kind and parent_id it is also
// connected to that node and to every ancestor of it.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input createInput
	if err := api.Decode(r, &input); err != nil {
		apierror.Write(w, r, err)
		return
	}

	var attachTo *models.ParentRef
	if input.ParentKind != "" || input.ParentID != 0 {
		ref, err := models.NewParentRef(input.ParentKind, input.ParentID)
		if err != nil {
			apierror.Write(w, r, err)
			return
		}
		attachTo = &ref
	}

	product, err := h.creator.CreateProduct(r.Context(), input.Name, attachTo)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("product_id", product.ID).Int("connections", len(product.Links)).Msg("product created")
	apierror.JSON(w, http.StatusCreated, Product{ID: product.ID, Name: product.Name})
}
