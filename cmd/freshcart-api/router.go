// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/freshcart/freshcart/cmd/freshcart-api/handlers"
	"github.com/freshcart/freshcart/cmd/freshcart-api/middleware"
	"github.com/freshcart/freshcart/internal/cache"
	"github.com/freshcart/freshcart/internal/catalog"
	"github.com/freshcart/freshcart/internal/config"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
	"github.com/freshcart/freshcart/internal/suggest"
	"github.com/freshcart/freshcart/internal/voice"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, db storage.TxDB, cacheClient cache.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	// Health check (no identity required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"freshcart"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.QueryRowContext(r.Context(), "SELECT 1").Scan(new(int)); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Repositories
	catalogRepo := storage.NewCatalogRepository(db)
	categoryRepo := storage.NewCategoryRepository(db)
	discountRepo := storage.NewDiscountRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	cartRepo := storage.NewCartRepository(db)

	// Services
	resolver := catalog.NewResolver(catalogRepo, catalog.ResolverConfig{
		CandidateLimit: cfg.Resolver.CandidateLimit,
		DisplayLimit:   cfg.Resolver.DisplayLimit,
	})
	linker := catalog.NewLinker(catalogRepo, cfg.Substitutes.MinTokenLength)
	catalogService := catalog.NewService(catalogRepo, categoryRepo, linker, logger)
	pricer := pricing.NewResolver(discountRepo, cacheClient, logger, pricing.Config{
		CacheResults: cfg.Pricing.CacheResults,
		CacheTTL:     cfg.Pricing.CacheTTL,
		MaxBatch:     cfg.Pricing.MaxBatch,
	})
	suggestService := suggest.NewService(catalogRepo, orderRepo, discountRepo, pricer, logger)
	dispatcher := voice.NewDispatcher(resolver, cartRepo, pricer, logger, voice.DispatcherConfig{
		MaxQuantity: cfg.Voice.MaxQuantity,
	})

	// Handlers
	voiceHandler := handlers.NewVoiceHandler(logger, dispatcher)
	cartHandler := handlers.NewCartHandler(logger, cartRepo, catalogRepo)
	productHandler := handlers.NewProductHandler(logger, catalogService, resolver, pricer)
	suggestionHandler := handlers.NewSuggestionHandler(logger, suggestService)
	discountHandler := handlers.NewDiscountHandler(logger, discountRepo)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(middleware.IdentityConfig{
			Require: !cfg.IsDevelopment(),
		}))

		r.Route("/voice", func(r chi.Router) {
			r.Post("/command", voiceHandler.Command)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.Search)
			r.Post("/", productHandler.Create)
			r.Get("/{productId}", productHandler.Get)
			r.Put("/{productId}", productHandler.Update)
		})

		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/substitutes/{productId}", suggestionHandler.Substitutes)
			r.Get("/history", suggestionHandler.History)
			r.Get("/deals", suggestionHandler.Deals)
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", discountHandler.ListActive)
			r.Post("/", discountHandler.Create)
		})
	})

	return r
}
