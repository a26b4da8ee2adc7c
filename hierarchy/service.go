package hierarchy

import (
	"context"
	"strings"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type CarModelWriter interface {
	CreateCarModel(ctx context.Context, m *models.CarModel) error
	UpdateCarModelParent(ctx context.Context, id uint, parent models.ParentRef, guard models.ParentGuard) (*models.CarModel, error)
}

type LinkWriter interface {
	CreateLink(ctx context.Context, link *models.ProductParentLink) error
}

type ProductWriter interface {
	CreateWithLinks(ctx context.Context, product *models.Product, parents []models.ParentRef) error
}

// Service applies the hierarchy write rules before anything is persisted.
type Service struct {
	resolver  *Resolver
	carModels CarModelWriter
	links     LinkWriter
	products  ProductWriter
}

func NewService(resolver *Resolver, carModels CarModelWriter, links LinkWriter, products ProductWriter) *Service {
	return &Service{
		resolver:  resolver,
		carModels: carModels,
		links:     links,
		products:  products,
	}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Chain returns ref followed by its ancestors.
func (s *Service) Chain(ctx context.Context, ref models.ParentRef) ([]Node, error) {
	return s.resolver.Chain(ctx, ref)
}

// CreateCarModel stores a model under the selected, existing parent.
func (s *Service) CreateCarModel(ctx context.Context, name string, sel ParentSelection) (*models.CarModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Err: models.ErrValidation}
	}
	parent, err := sel.CarModelParent(0)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Chain(ctx, parent); err != nil {
		return nil, err
	}

	m := &models.CarModel{Name: name}
	m.SetParent(parent)
	if err := s.carModels.CreateCarModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ReparentCarModel moves a model under another node. The new parent may
// not be the model itself or one of its descendants. The chain is walked
// inside the update transaction, so two crossing moves cannot both pass.
func (s *Service) ReparentCarModel(ctx context.Context, id uint, sel ParentSelection) (*models.CarModel, error) {
	parent, err := sel.CarModelParent(id)
	if err != nil {
		return nil, err
	}
	return s.carModels.UpdateCarModelParent(ctx, id, parent, func(nodes models.NodeReader) error {
		chain, err := s.resolver.withStore(nodes).Chain(ctx, parent)
		if err != nil {
			return err
		}
		for _, n := range chain {
			if n.Ref == models.CarModelRef(id) {
				return &models.ValidationError{Field: "model_parent", Err: models.ErrParentCycle}
			}
		}
		return nil
	})
}

// LinkProduct attaches a product to one existing node.
func (s *Service) LinkProduct(ctx context.Context, productID uint, sel ParentSelection) (*models.ProductParentLink, error) {
	parent, err := sel.Ref()
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.ResolveParent(ctx, parent); err != nil {
		return nil, err
	}
	link := &models.ProductParentLink{ProductID: productID, ParentKind: parent.Kind, ParentID: parent.ID}
	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// CreateProduct stores a product. With attachTo set, the product is linked
// to that node and to every ancestor of it, one row per level.
func (s *Service) CreateProduct(ctx context.Context, name string, attachTo *models.ParentRef) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Err: models.ErrValidation}
	}
	var parents []models.ParentRef
	if attachTo != nil {
		chain, err := s.resolver.Chain(ctx, *attachTo)
		if err != nil {
			return nil, err
		}
		parents = Refs(chain)
	}

	product := &models.Product{Name: name}
	if err := s.products.CreateWithLinks(ctx, product, parents); err != nil {
		return nil, err
	}
	return product, nil
}
