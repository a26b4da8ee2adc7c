// Package hierarchy resolves the polymorphic parent relation between makes
// and car models and walks it upward.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// DefaultMaxDepth bounds every upward walk. Real chains are make → model →
// sub-model.
const DefaultMaxDepth = 16

// ErrCycleDetected reports a parent chain that loops or never reaches a make.
var ErrCycleDetected = errors.New("parent chain does not terminate at a make")

// CycleError carries the chain observed before the walk was abandoned.
type CycleError struct {
	Chain []models.ParentRef
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, ref := range e.Chain {
		parts[i] = ref.String()
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// NodeStore is the read side of the entity store the resolver needs.
type NodeStore interface {
	GetMake(ctx context.Context, id uint) (*models.Make, error)
	GetCarModel(ctx context.Context, id uint) (*models.CarModel, error)
}

// Node is a resolved taxonomy record. Parent is nil for a make.
type Node struct {
	Ref    models.ParentRef
	Name   string
	Parent *models.ParentRef
}

func (n Node) IsRoot() bool {
	return n.Parent == nil
}

type Resolver struct {
	store    NodeStore
	maxDepth int
}

type Option func(*Resolver)

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

func NewResolver(store NodeStore, opts ...Option) *Resolver {
	r := &Resolver{store: store, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// withStore returns a resolver with the same limits reading from store.
func (r *Resolver) withStore(store NodeStore) *Resolver {
	return &Resolver{store: store, maxDepth: r.maxDepth}
}

// ResolveParent loads the concrete record behind ref.
func (r *Resolver) ResolveParent(ctx context.Context, ref models.ParentRef) (Node, error) {
	switch ref.Kind {
	case models.ParentKindMake:
		m, err := r.store.GetMake(ctx, ref.ID)
		if err != nil {
			return Node{}, err
		}
		return Node{Ref: ref, Name: m.Name}, nil
	case models.ParentKindCarModel:
		cm, err := r.store.GetCarModel(ctx, ref.ID)
		if err != nil {
			return Node{}, err
		}
		parent := cm.Parent()
		return Node{Ref: ref, Name: cm.Name, Parent: &parent}, nil
	}
	return Node{}, fmt.Errorf("%w: %w", models.ErrNotFound, models.ErrUnknownParentKind)
}

// Exists reports NotFound when ref does not point at a stored record.
func (r *Resolver) Exists(ctx context.Context, ref models.ParentRef) error {
	_, err := r.ResolveParent(ctx, ref)
	return err
}

// Chain returns the node followed by its ancestors, ending at the root make.
func (r *Resolver) Chain(ctx context.Context, ref models.ParentRef) ([]Node, error) {
	visited := roaring64.New()
	var chain []Node
	seen := make([]models.ParentRef, 0, 4)

	next := ref
	for {
		seen = append(seen, next)
		if next.IsCarModel() {
			if visited.Contains(uint64(next.ID)) {
				return nil, &CycleError{Chain: seen}
			}
			visited.Add(uint64(next.ID))
		}
		if len(chain) >= r.maxDepth {
			return nil, &CycleError{Chain: seen}
		}

		node, err := r.ResolveParent(ctx, next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, node)
		if node.IsRoot() {
			return chain, nil
		}
		next = *node.Parent
	}
}

// Ancestors returns the parents of ref from nearest to the root make. The
// node itself is not included, so a make has no ancestors.
func (r *Resolver) Ancestors(ctx context.Context, ref models.ParentRef) ([]Node, error) {
	chain, err := r.Chain(ctx, ref)
	if err != nil {
		return nil, err
	}
	return chain[1:], nil
}

// IsDescendantOf reports whether candidate is one of ref's ancestors.
func (r *Resolver) IsDescendantOf(ctx context.Context, ref, candidate models.ParentRef) (bool, error) {
	ancestors, err := r.Ancestors(ctx, ref)
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		if a.Ref == candidate {
			return true, nil
		}
	}
	return false, nil
}

// DisplayName joins the names from the root make down to ref, e.g.
// "Audi A3 8V".
func (r *Resolver) DisplayName(ctx context.Context, ref models.ParentRef) (string, error) {
	chain, err := r.Chain(ctx, ref)
	if err != nil {
		return "", err
	}
	return JoinNames(chain), nil
}

// JoinNames renders a leaf-first chain root first.
func JoinNames(chain []Node) string {
	names := make([]string, len(chain))
	for i, n := range chain {
		names[len(chain)-1-i] = n.Name
	}
	return strings.Join(names, " ")
}

// Refs projects a chain to its references.
func Refs(chain []Node) []models.ParentRef {
	refs := make([]models.ParentRef, len(chain))
	for i, n := range chain {
		refs[i] = n.Ref
	}
	return refs
}
