package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Catalog        Catalog
	Orders         Orders
	Auth           Authenticator
	Tokens         TokenParser
	Sessions       SessionProvider
	Log            *slog.Logger
	RequestTimeout time.Duration
	CORSOrigin     string
}

// NewRouter wires every API route under /api.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}

	productHandler := NewProductHandler(cfg.Catalog)
	cartHandler := NewCartHandler(cfg.Sessions, cfg.Catalog)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.Sessions)
	authHandler := NewAuthHandler(cfg.Auth)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(CORS(cfg.CORSOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := AuthMiddleware(cfg.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/validate", ordersHandler.ValidateCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", ordersHandler.PlaceOrder) // guests may check out

			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{id}", ordersHandler.GetOrder)
				r.Patch("/{id}/status", ordersHandler.UpdateStatus)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})
	})

	return otelhttp.NewHandler(r, "shop-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
