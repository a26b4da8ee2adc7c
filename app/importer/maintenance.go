package importer

import (
	"context"
	"errors"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// UndoSubmodels removes the sub-models a sheet created. Sub-models that
// still have children or product links are kept and counted as skipped.
func (im *Importer) UndoSubmodels(ctx context.Context, rows []ModelRow) (Summary, error) {
	var s Summary
	for _, row := range rows {
		if len(row.Submodels) == 0 {
			continue
		}
		log := im.log.With().Str("make", row.Make).Str("model", row.Model).Logger()

		mk, err := im.makes.GetByName(ctx, row.Make)
		if errors.Is(err, models.ErrNotFound) {
			log.Warn().Msg("make not found")
			s.Skipped += len(row.Submodels)
			continue
		}
		if err != nil {
			return s, err
		}
		model, err := im.carModels.GetByName(ctx, row.Model, mk.Ref())
		if errors.Is(err, models.ErrNotFound) {
			log.Warn().Msg("model not found")
			s.Skipped += len(row.Submodels)
			continue
		}
		if err != nil {
			return s, err
		}

		for _, name := range row.Submodels {
			err := im.carModels.DeleteByName(ctx, name, model.Ref())
			switch {
			case err == nil:
				s.Removed++
				log.Info().Str("submodel", name).Msg("submodel removed")
			case errors.Is(err, models.ErrNotFound):
				s.Skipped++
				log.Warn().Str("submodel", name).Msg("submodel not found")
			case errors.Is(err, models.ErrInUse):
				s.Skipped++
				log.Warn().Str("submodel", name).Msg("submodel still in use, keeping it")
			default:
				return s, err
			}
		}
	}
	return s, nil
}

func (im *Importer) ListProducts(ctx context.Context) ([]models.Product, error) {
	return im.products.GetAllProducts(ctx)
}

// ConnectionEntry is one product link with the names on both ends.
type ConnectionEntry struct {
	Link    models.ProductParentLink
	Product string
	Parent  string
	// Err is set when the linked node no longer exists.
	Err error
}

func (im *Importer) ListConnections(ctx context.Context) ([]ConnectionEntry, error) {
	names, err := im.productNames(ctx)
	if err != nil {
		return nil, err
	}
	links, err := im.links.GetAllLinks(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]ConnectionEntry, len(links))
	for i, l := range links {
		entries[i] = ConnectionEntry{Link: l, Product: names[l.ProductID]}
		node, err := im.resolver.ResolveParent(ctx, l.Parent())
		if err != nil {
			entries[i].Err = err
			continue
		}
		entries[i].Parent = node.Name
	}
	return entries, nil
}

// VariantEntry is a variant with the name of its product.
type VariantEntry struct {
	Variant models.Variant
	Product string
}

func (im *Importer) ListVariants(ctx context.Context) ([]VariantEntry, error) {
	names, err := im.productNames(ctx)
	if err != nil {
		return nil, err
	}
	variants, err := im.variants.GetVariants(ctx, models.VariantFilters{})
	if err != nil {
		return nil, err
	}
	entries := make([]VariantEntry, len(variants))
	for i, v := range variants {
		entries[i] = VariantEntry{Variant: v, Product: names[v.ProductID]}
	}
	return entries, nil
}

func (im *Importer) productNames(ctx context.Context) (map[uint]string, error) {
	products, err := im.products.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

// DeleteImages removes every variant image. Files go after the rows.
func (im *Importer) DeleteImages(ctx context.Context) (int, error) {
	keys, err := im.media.DeleteAllImages(ctx)
	if err != nil {
		return 0, err
	}
	im.files.DeleteLater(keys...)
	return len(keys), nil
}

// DeleteAudio removes every audio track. Files go after the rows.
func (im *Importer) DeleteAudio(ctx context.Context) (int, error) {
	keys, err := im.media.DeleteAllAudioTracks(ctx)
	if err != nil {
		return 0, err
	}
	im.files.DeleteLater(keys...)
	return len(keys), nil
}

// DeleteVariants removes every variant with its media. Products stay.
func (im *Importer) DeleteVariants(ctx context.Context) (int64, error) {
	n, keys, err := im.variants.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	im.files.DeleteLater(keys...)
	return n, nil
}
