// Package importer fills the catalog in bulk: the make/model taxonomy from
// a sheet, one product per leaf model, the standard variants, and variant
// media from folders on disk.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// ProductNamePrefix precedes the display name of the leaf model in every
// generated product name.
const ProductNamePrefix = "ZenRenne Autowerke ValveLogicTM Exhaust System - "

// VariantTemplate describes a standard variant; FullName is formatted with
// the product name.
type VariantTemplate struct {
	Name     string
	FullName string
}

var VariantTemplates = []VariantTemplate{
	{Name: "Catless Downpipe", FullName: "ZenRenne Autowerke Catless Downpipe with Heat Shield - %s"},
	{Name: "Catted Downpipe", FullName: "ZenRenne Autowerke Catted Downpipe with Heat Shield - %s"},
	{Name: "Stainless Steel Catback", FullName: "ZenRenne Autowerke ValveLogic T304 Stainless Steel Catback Exhaust System - %s"},
	{Name: "Titanium Catback", FullName: "ZenRenne Autowerke ValveLogic Grade5 Titanium Catback Exhaust System - %s"},
}

// Summary counts what a run did. Created, Existing and Removed count
// records, Skipped counts input rows or models that were left alone.
type Summary struct {
	Created  int
	Existing int
	Removed  int
	Skipped  int
}

func (s *Summary) record(created bool) {
	if created {
		s.Created++
	} else {
		s.Existing++
	}
}

type Importer struct {
	makes     *models.MakesRepository
	carModels *models.CarModelsRepository
	products  *models.ProductsRepository
	links     *models.LinksRepository
	variants  *models.VariantsRepository
	media     *models.MediaRepository
	resolver  *hierarchy.Resolver
	files     *storage.Storage
	log       zerolog.Logger
}

func New(db *gorm.DB, files *storage.Storage, log zerolog.Logger, opts ...hierarchy.Option) *Importer {
	makes := models.NewMakesRepository(db)
	carModels := models.NewCarModelsRepository(db)
	return &Importer{
		makes:     makes,
		carModels: carModels,
		products:  models.NewProductsRepository(db),
		links:     models.NewLinksRepository(db),
		variants:  models.NewVariantsRepository(db),
		media:     models.NewMediaRepository(db),
		resolver:  hierarchy.NewResolver(hierarchy.NewStore(makes, carModels), opts...),
		files:     files,
		log:       log,
	}
}

// ImportModels creates the makes, models and sub-models of rows. Records
// that already exist are reused, so a sheet can be imported twice.
func (im *Importer) ImportModels(ctx context.Context, rows []ModelRow) (Summary, error) {
	var s Summary
	for _, row := range rows {
		mk, created, err := im.makes.GetOrCreateMake(ctx, row.Make)
		if err != nil {
			return s, fmt.Errorf("make %q: %w", row.Make, err)
		}
		s.record(created)

		model, created, err := im.carModels.GetOrCreateCarModel(ctx, row.Model, mk.Ref())
		if err != nil {
			return s, fmt.Errorf("model %q: %w", row.Model, err)
		}
		s.record(created)
		if created {
			im.log.Info().Str("make", mk.Name).Str("model", model.Name).Msg("model created")
		}

		for _, name := range row.Submodels {
			sub, created, err := im.carModels.GetOrCreateCarModel(ctx, name, model.Ref())
			if err != nil {
				return s, fmt.Errorf("submodel %q of %q: %w", name, row.Model, err)
			}
			s.record(created)
			if created {
				im.log.Info().Str("model", model.Name).Str("submodel", sub.Name).Msg("submodel created")
			}
		}
	}
	return s, nil
}

// CreateProducts makes one product per leaf car model, named after the
// model's display name, and links it to every node of the model's chain.
// Leaves whose chain cannot be resolved are skipped.
func (im *Importer) CreateProducts(ctx context.Context) (Summary, error) {
	var s Summary
	parentIDs, err := im.carModels.ParentModelIDs(ctx)
	if err != nil {
		return s, err
	}
	inner := roaring64.New()
	for _, id := range parentIDs {
		inner.Add(uint64(id))
	}

	all, err := im.carModels.GetAllCarModels(ctx)
	if err != nil {
		return s, err
	}
	for _, m := range all {
		if inner.Contains(uint64(m.ID)) {
			continue
		}
		chain, err := im.resolver.Chain(ctx, m.Ref())
		if err != nil {
			im.log.Warn().Err(err).Uint("model_id", m.ID).Msg("skipping model with broken chain")
			s.Skipped++
			continue
		}

		name := ProductNamePrefix + hierarchy.JoinNames(chain)
		product, created, err := im.products.GetOrCreateByName(ctx, name)
		if err != nil {
			return s, fmt.Errorf("product %q: %w", name, err)
		}
		s.record(created)
		if created {
			im.log.Info().Str("product", name).Msg("product created")
		}

		for _, ref := range hierarchy.Refs(chain) {
			if _, err := im.links.EnsureLink(ctx, product.ID, ref); err != nil {
				return s, fmt.Errorf("link %q to %s: %w", name, ref, err)
			}
		}
	}
	return s, nil
}

// CreateVariants gives every product the standard variants it lacks.
func (im *Importer) CreateVariants(ctx context.Context) (Summary, error) {
	var s Summary
	products, err := im.products.GetAllProducts(ctx)
	if err != nil {
		return s, err
	}
	if len(products) == 0 {
		im.log.Warn().Msg("no products found")
		return s, nil
	}

	for _, p := range products {
		for _, tpl := range VariantTemplates {
			fullName := fmt.Sprintf(tpl.FullName, p.Name)
			_, err := im.variants.GetByFullName(ctx, fullName)
			if err == nil {
				s.Existing++
				continue
			}
			if !errors.Is(err, models.ErrNotFound) {
				return s, err
			}

			v := &models.Variant{Name: tpl.Name, FullName: fullName, ProductID: p.ID}
			if err := im.variants.CreateVariant(ctx, v); err != nil {
				return s, fmt.Errorf("variant %q: %w", fullName, err)
			}
			s.Created++
			im.log.Debug().Str("variant", tpl.Name).Str("product", p.Name).Msg("variant created")
		}
	}
	return s, nil
}

// ModelEntry is one line of the model listing.
type ModelEntry struct {
	Model       models.CarModel
	Parent      string
	DisplayName string
	// Err is set when the model's chain cannot be resolved.
	Err error
}

// ListModels returns every car model with its direct parent and display
// name.
func (im *Importer) ListModels(ctx context.Context) ([]ModelEntry, error) {
	all, err := im.carModels.GetAllCarModels(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]ModelEntry, 0, len(all))
	for _, m := range all {
		entry := ModelEntry{Model: m}
		parent, err := im.resolver.ResolveParent(ctx, m.Parent())
		if err != nil {
			entry.Err = err
			entries = append(entries, entry)
			continue
		}
		entry.Parent = parent.Name
		entry.DisplayName, entry.Err = im.resolver.DisplayName(ctx, m.Ref())
		entries = append(entries, entry)
	}
	return entries, nil
}

// MediaCounts reports how many variants have images and audio tracks.
func (im *Importer) MediaCounts(ctx context.Context) (withImages, withAudio int64, err error) {
	return im.variants.MediaCounts(ctx)
}

// DeleteProducts removes every product with its links and variants, then
// the files of the removed variants.
func (im *Importer) DeleteProducts(ctx context.Context) (links, products int64, err error) {
	images, err := im.media.GetImages(ctx, models.ImageFilters{})
	if err != nil {
		return 0, 0, err
	}
	tracks, err := im.media.GetAudioTracks(ctx, nil)
	if err != nil {
		return 0, 0, err
	}

	links, products, err = im.products.DeleteAll(ctx)
	if err != nil {
		return 0, 0, err
	}

	keys := make([]string, 0, len(images)+len(tracks))
	for _, img := range images {
		keys = append(keys, img.Image)
	}
	for _, t := range tracks {
		keys = append(keys, t.Track)
	}
	im.files.DeleteLater(keys...)
	return links, products, nil
}
