package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func carModelName(m models.CarModel) string { return m.Name }
func productName(p models.Product) string   { return p.Name }

func TestCarModelsByParent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	repo := models.NewCarModelsRepository(db)

	byAudi, err := repo.ListByParent(ctx, s.audi.Ref())
	require.NoError(t, err)
	assert.Equal(t, []string{"A3"}, names(byAudi, carModelName), "direct children only")

	byA3, err := repo.ListByParent(ctx, s.a3.Ref())
	require.NoError(t, err)
	assert.Equal(t, []string{"8V"}, names(byA3, carModelName))

	// A make and a model can share an id; the kind keeps them apart.
	byModelWithMakeID, err := repo.ListByParent(ctx, models.CarModelRef(s.audi.ID))
	require.NoError(t, err)
	for _, m := range byModelWithMakeID {
		assert.Equal(t, models.ParentKindCarModel, m.ParentKind)
	}

	none, err := repo.ListByParent(ctx, s.v8.Ref())
	require.NoError(t, err)
	assert.Empty(t, none)

	parents, err := repo.ParentModelIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{s.a3.ID}, parents)
}

func TestCarModelNameUniqueWithinParent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	repo := models.NewCarModelsRepository(db)

	dup := &models.CarModel{Name: "A3"}
	dup.SetParent(s.audi.Ref())
	assert.ErrorIs(t, repo.CreateCarModel(ctx, dup), models.ErrDuplicateName)

	elsewhere := &models.CarModel{Name: "A3"}
	elsewhere.SetParent(s.bmw.Ref())
	assert.NoError(t, repo.CreateCarModel(ctx, elsewhere))

	found, created, err := repo.GetOrCreateCarModel(ctx, "A3", s.audi.Ref())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s.a3.ID, found.ID)
}

func TestUpdateCarModelParent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	repo := models.NewCarModelsRepository(db)

	moved, err := repo.UpdateCarModelParent(ctx, s.v8.ID, s.m3.Ref(), nil)
	require.NoError(t, err)
	assert.Equal(t, s.m3.Ref(), moved.Parent())

	reloaded, err := repo.GetCarModel(ctx, s.v8.ID)
	require.NoError(t, err)
	assert.Equal(t, s.m3.Ref(), reloaded.Parent())

	_, err = repo.UpdateCarModelParent(ctx, 9999, s.m3.Ref(), nil)
	assert.ErrorIs(t, err, models.ErrCarModelNotFound)
}

func TestUpdateCarModelParentGuard(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	repo := models.NewCarModelsRepository(db)

	t.Run("guard reads through the transaction", func(t *testing.T) {
		var seen []string
		_, err := repo.UpdateCarModelParent(ctx, s.a3.ID, s.bmw.Ref(), func(nodes models.NodeReader) error {
			v8, err := nodes.GetCarModel(ctx, s.v8.ID)
			if err != nil {
				return err
			}
			bmw, err := nodes.GetMake(ctx, s.bmw.ID)
			if err != nil {
				return err
			}
			seen = append(seen, v8.Name, bmw.Name)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"8V", "BMW"}, seen)
	})

	t.Run("guard error leaves the row unchanged", func(t *testing.T) {
		_, err := repo.UpdateCarModelParent(ctx, s.m3.ID, s.v8.Ref(), func(models.NodeReader) error {
			return &models.ValidationError{Field: "model_parent", Err: models.ErrParentCycle}
		})
		assert.ErrorIs(t, err, models.ErrParentCycle)

		reloaded, err := repo.GetCarModel(ctx, s.m3.ID)
		require.NoError(t, err)
		assert.Equal(t, s.bmw.Ref(), reloaded.Parent())
	})

	t.Run("unknown nodes surface as not found", func(t *testing.T) {
		_, err := repo.UpdateCarModelParent(ctx, s.v8.ID, s.m3.Ref(), func(nodes models.NodeReader) error {
			_, err := nodes.GetCarModel(ctx, 9999)
			return err
		})
		assert.ErrorIs(t, err, models.ErrCarModelNotFound)
	})
}

func TestMakeNameUnique(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedTaxonomy(t, db)
	repo := models.NewMakesRepository(db)

	assert.ErrorIs(t, repo.CreateMake(ctx, &models.Make{Name: "Audi"}), models.ErrDuplicateName)

	_, err := repo.GetMake(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrMakeNotFound)
}

func TestProductsByAncestorUsesExplicitLinksOnly(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	products := models.NewProductsRepository(db)

	full := &models.Product{Name: "Audi A3 8V"}
	require.NoError(t, products.CreateWithLinks(ctx, full, []models.ParentRef{s.v8.Ref(), s.a3.Ref(), s.audi.Ref()}))

	leafOnly := &models.Product{Name: "Leaf only"}
	require.NoError(t, products.CreateWithLinks(ctx, leafOnly, []models.ParentRef{s.v8.Ref()}))

	byMake, err := products.ListByAncestor(ctx, s.audi.Ref())
	require.NoError(t, err)
	assert.Equal(t, []string{"Audi A3 8V"}, names(byMake, productName))

	byLeaf, err := products.ListByAncestor(ctx, s.v8.Ref())
	require.NoError(t, err)
	assert.Equal(t, []string{"Audi A3 8V", "Leaf only"}, names(byLeaf, productName))

	byBMW, err := products.ListByAncestor(ctx, s.bmw.Ref())
	require.NoError(t, err)
	assert.Empty(t, byBMW)

	makes, err := models.NewMakesRepository(db).ListByProduct(ctx, full.ID)
	require.NoError(t, err)
	require.Len(t, makes, 1)
	assert.Equal(t, "Audi", makes[0].Name)

	carModels, err := models.NewCarModelsRepository(db).ListByProduct(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A3", "8V"}, names(carModels, carModelName))
}

func TestGetFilteredProducts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	products := models.NewProductsRepository(db)

	for i, name := range []string{"Audi A3", "Audi A3 8V", "BMW M3"} {
		parent := s.audi.Ref()
		if i == 2 {
			parent = s.bmw.Ref()
		}
		require.NoError(t, products.CreateWithLinks(ctx, &models.Product{Name: name}, []models.ParentRef{parent}))
	}

	page, total, err := products.GetFilteredProducts(ctx, 0, 1, models.ProductFilters{Ancestor: ptr(s.audi.Ref())})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"Audi A3"}, names(page, productName))

	page, total, err = products.GetFilteredProducts(ctx, 0, 10, models.ProductFilters{NameContains: "m3"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"BMW M3"}, names(page, productName))
}

func TestCreateLink(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	product := &models.Product{Name: "Audi A3"}
	require.NoError(t, models.NewProductsRepository(db).Create(ctx, product))
	links := models.NewLinksRepository(db)

	link := &models.ProductParentLink{ProductID: product.ID, ParentKind: models.ParentKindMake, ParentID: s.audi.ID}
	require.NoError(t, links.CreateLink(ctx, link))

	again := &models.ProductParentLink{ProductID: product.ID, ParentKind: models.ParentKindMake, ParentID: s.audi.ID}
	err := links.CreateLink(ctx, again)
	assert.ErrorIs(t, err, models.ErrDuplicateLink)
	assert.ErrorIs(t, err, models.ErrValidation)

	// Same id, other kind: a different node.
	model := &models.ProductParentLink{ProductID: product.ID, ParentKind: models.ParentKindCarModel, ParentID: s.audi.ID}
	assert.NoError(t, links.CreateLink(ctx, model))

	missing := &models.ProductParentLink{ProductID: 9999, ParentKind: models.ParentKindMake, ParentID: s.audi.ID}
	assert.ErrorIs(t, links.CreateLink(ctx, missing), models.ErrProductNotFound)

	created, err := links.EnsureLink(ctx, product.ID, s.audi.Ref())
	require.NoError(t, err)
	assert.False(t, created)

	all, err := links.GetAllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteVariantCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	media := models.NewMediaRepository(db)
	variants := models.NewVariantsRepository(db)
	v := seedVariant(t, db, "Titanium Catback")

	require.NoError(t, media.AddImage(ctx, &models.VariantImage{Image: "variant_images/a.jpg", IsMain: true, VariantID: v.ID}))
	require.NoError(t, media.AddAudioTrack(ctx, &models.AudioTrack{Name: "Idle", Track: "audio_tracks/idle.mp3", VariantID: v.ID}))
	require.NoError(t, media.AddStat(ctx, newStat(v.ID, "Weight")))

	withImages, withAudio, err := variants.MediaCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, withImages)
	assert.EqualValues(t, 1, withAudio)

	keys, err := variants.DeleteVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"variant_images/a.jpg", "audio_tracks/idle.mp3"}, keys)

	stats, err := media.GetStats(ctx, &v.ID)
	require.NoError(t, err)
	assert.Empty(t, stats)

	_, err = variants.GetVariant(ctx, v.ID)
	assert.ErrorIs(t, err, models.ErrVariantNotFound)
}

func TestGetVariantsWithImages(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	media := models.NewMediaRepository(db)
	variants := models.NewVariantsRepository(db)
	v := seedVariant(t, db, "Titanium Catback")
	bare := &models.Variant{Name: "Catless Downpipe", FullName: "Full bare", ProductID: v.ProductID}
	require.NoError(t, variants.CreateVariant(ctx, bare))
	require.NoError(t, media.AddImage(ctx, &models.VariantImage{Image: "a.jpg", VariantID: v.ID}))

	all, err := variants.GetVariants(ctx, models.VariantFilters{ProductID: &v.ProductID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	withImages, err := variants.GetVariants(ctx, models.VariantFilters{ProductID: &v.ProductID, WithImages: true})
	require.NoError(t, err)
	require.Len(t, withImages, 1)
	assert.Equal(t, v.ID, withImages[0].ID)

	productsWithImages, err := models.NewProductsRepository(db).ListWithVariantImages(ctx)
	require.NoError(t, err)
	require.Len(t, productsWithImages, 1)
	assert.Equal(t, v.ProductID, productsWithImages[0].ID)

	err = variants.CreateVariant(ctx, &models.Variant{Name: "x", FullName: "x", ProductID: 9999})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func ptr[T any](v T) *T { return &v }

func TestDeleteMake(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	repo := models.NewMakesRepository(db)

	_, err := repo.DeleteMake(ctx, s.audi.ID)
	assert.ErrorIs(t, err, models.ErrInUse)

	lonely := &models.Make{Name: "Lancia", Icon: "make_icons/lancia.png"}
	require.NoError(t, repo.CreateMake(ctx, lonely))
	deleted, err := repo.DeleteMake(ctx, lonely.ID)
	require.NoError(t, err)
	assert.Equal(t, "make_icons/lancia.png", deleted.Icon)

	_, err = repo.DeleteMake(ctx, lonely.ID)
	assert.ErrorIs(t, err, models.ErrMakeNotFound)

	products := models.NewProductsRepository(db)
	assert.ErrorIs(t, products.Exists(ctx, 9999), models.ErrProductNotFound)
}

func TestDeleteCarModelByName(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedTaxonomy(t, db)
	repo := models.NewCarModelsRepository(db)

	t.Run("model with sub-models is kept", func(t *testing.T) {
		err := repo.DeleteByName(ctx, "A3", s.audi.Ref())
		assert.ErrorIs(t, err, models.ErrInUse)
	})

	t.Run("linked model is kept", func(t *testing.T) {
		product := &models.Product{Name: "BMW M3 Exhaust"}
		require.NoError(t, models.NewProductsRepository(db).CreateWithLinks(ctx, product, []models.ParentRef{s.m3.Ref()}))
		err := repo.DeleteByName(ctx, "M3", s.bmw.Ref())
		assert.ErrorIs(t, err, models.ErrInUse)
	})

	t.Run("name under another parent", func(t *testing.T) {
		err := repo.DeleteByName(ctx, "8V", s.audi.Ref())
		assert.ErrorIs(t, err, models.ErrCarModelNotFound)
	})

	t.Run("leaf is removed", func(t *testing.T) {
		found, err := repo.GetByName(ctx, "8V", s.a3.Ref())
		require.NoError(t, err)
		assert.Equal(t, s.v8.ID, found.ID)

		require.NoError(t, repo.DeleteByName(ctx, "8V", s.a3.Ref()))
		_, err = repo.GetByName(ctx, "8V", s.a3.Ref())
		assert.ErrorIs(t, err, models.ErrCarModelNotFound)
	})
}
