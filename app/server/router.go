// Package server wires repositories, services and handlers into the HTTP
// router.
package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/AsyncXeNo/zenrenne-backend/app/cache"
	"github.com/AsyncXeNo/zenrenne-backend/app/carmodels"
	"github.com/AsyncXeNo/zenrenne-backend/app/links"
	"github.com/AsyncXeNo/zenrenne-backend/app/makes"
	"github.com/AsyncXeNo/zenrenne-backend/app/media"
	"github.com/AsyncXeNo/zenrenne-backend/app/middleware"
	"github.com/AsyncXeNo/zenrenne-backend/app/products"
	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/app/variants"
	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type Options struct {
	DB       *gorm.DB
	Cache    cache.Cache
	CacheTTL time.Duration
	Files    *storage.Storage
	Auth     *middleware.Auth
	// MediaURL is the public prefix of stored files; its path is where
	// they are served.
	MediaURL string
	MaxDepth int
}

// New wires all dependencies and returns the root handler.
// Dependency graph: Handler <- Service <- Repository <- DB
func New(opts Options) http.Handler {
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Auth == nil {
		opts.Auth = middleware.NewAuth("")
	}

	// Repositories
	makesRepo := models.NewMakesRepository(opts.DB)
	carModelsRepo := models.NewCarModelsRepository(opts.DB)
	productsRepo := models.NewProductsRepository(opts.DB)
	linksRepo := models.NewLinksRepository(opts.DB)
	variantsRepo := models.NewVariantsRepository(opts.DB)
	mediaRepo := models.NewMediaRepository(opts.DB)

	// Services
	var resolverOpts []hierarchy.Option
	if opts.MaxDepth > 0 {
		resolverOpts = append(resolverOpts, hierarchy.WithMaxDepth(opts.MaxDepth))
	}
	resolver := hierarchy.NewResolver(hierarchy.NewStore(makesRepo, carModelsRepo), resolverOpts...)
	hierarchySvc := hierarchy.NewService(resolver, carModelsRepo, linksRepo, productsRepo)

	// Handlers
	makesH := makes.NewMakeHandler(makesRepo, productsRepo, opts.Files)
	carModelsH := carmodels.NewCarModelHandler(carModelsRepo, makesRepo, productsRepo, hierarchySvc)
	productsH := products.NewProductHandler(productsRepo, resolver, hierarchySvc)
	linksH := links.NewLinkHandler(linksRepo, hierarchySvc)
	variantsH := variants.NewVariantHandler(variantsRepo, productsRepo, opts.Files)
	mediaH := media.NewMediaHandler(mediaRepo, variantsRepo, opts.Files)

	api := http.NewServeMux()
	admin := opts.Auth.RequireAdmin()
	write := func(pattern string, h http.HandlerFunc) {
		api.Handle(pattern, admin(h))
	}

	// Makes
	api.HandleFunc("GET /api/makes", makesH.HandleGetAll)
	api.HandleFunc("GET /api/makes/product/{product_id}", makesH.HandleGetByProduct)
	write("POST /api/makes", makesH.HandleCreate)
	write("DELETE /api/makes/{id}", makesH.HandleDelete)

	// Car models
	api.HandleFunc("GET /api/models", carModelsH.HandleGetAll)
	api.HandleFunc("GET /api/models/make/{make_id}", carModelsH.HandleGetByMake)
	api.HandleFunc("GET /api/models/model/{model_id}", carModelsH.HandleGetByModel)
	api.HandleFunc("GET /api/models/product/{product_id}", carModelsH.HandleGetByProduct)
	api.HandleFunc("GET /api/models/ancestors/{id}", carModelsH.HandleGetAncestors)
	write("POST /api/models", carModelsH.HandleCreate)
	write("PUT /api/models/{id}/parent", carModelsH.HandleReparent)

	// Products
	api.HandleFunc("GET /api/products", productsH.HandleGet)
	api.HandleFunc("GET /api/products/with-images", productsH.HandleGetWithImages)
	api.HandleFunc("GET /api/products/{id}", productsH.HandleGetProduct)
	api.HandleFunc("GET /api/products/make/{make_id}", productsH.HandleGetByMake)
	api.HandleFunc("GET /api/products/model/{model_id}", productsH.HandleGetByModel)
	write("POST /api/products", productsH.HandleCreate)

	// Product connections
	api.HandleFunc("GET /api/productconnections", linksH.HandleGetAll)
	write("POST /api/productconnections", linksH.HandleCreate)

	// Variants
	api.HandleFunc("GET /api/variants", variantsH.HandleGetAll)
	api.HandleFunc("GET /api/variants/{id}", variantsH.HandleGetVariant)
	api.HandleFunc("GET /api/variants/product/{product_id}", variantsH.HandleGetByProduct)
	api.HandleFunc("GET /api/variants/product/{product_id}/with-images", variantsH.HandleGetByProductWithImages)
	write("POST /api/variants", variantsH.HandleCreate)
	write("DELETE /api/variants/{id}", variantsH.HandleDelete)

	// Variant images
	api.HandleFunc("GET /api/variantimages", mediaH.HandleGetImages)
	api.HandleFunc("GET /api/variantimages/variant/{variant_id}", mediaH.HandleGetImagesByVariant)
	write("POST /api/variantimages", mediaH.HandleCreateImage)
	write("POST /api/variantimages/{id}/main", mediaH.HandleSetMainImage)
	write("DELETE /api/variantimages/{id}", mediaH.HandleDeleteImage)

	// Stats
	api.HandleFunc("GET /api/stats", mediaH.HandleGetStats)
	api.HandleFunc("GET /api/stats/variant/{variant_id}", mediaH.HandleGetStatsByVariant)
	write("POST /api/stats", mediaH.HandleCreateStat)
	write("DELETE /api/stats/{id}", mediaH.HandleDeleteStat)

	// Audio tracks
	api.HandleFunc("GET /api/audiotracks", mediaH.HandleGetAudioTracks)
	api.HandleFunc("GET /api/audiotracks/variant/{variant_id}", mediaH.HandleGetAudioTracksByVariant)
	write("POST /api/audiotracks", mediaH.HandleCreateAudioTrack)
	write("DELETE /api/audiotracks/{id}", mediaH.HandleDeleteAudioTrack)

	root := http.NewServeMux()
	root.Handle("/api/", cache.Responses(opts.Cache, opts.CacheTTL)(api))
	root.Handle("GET "+mediaPrefix(opts.MediaURL)+"{path...}", opts.Files.Handler())

	var pinger Pinger
	if p, ok := opts.Cache.(Pinger); ok {
		pinger = p
	}
	root.HandleFunc("GET /healthz", Health(opts.DB, pinger))

	// Global middleware chain (order matters)
	return middleware.Chain(root,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS,
	)
}

// mediaPrefix returns the path of the media base URL, with a trailing slash.
func mediaPrefix(mediaURL string) string {
	p := "/media/"
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" && u.Path != "/" {
		p = u.Path
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
