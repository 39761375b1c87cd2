package router

import (
	"net/http"

	"catalog-engine/internal/handler"
	"catalog-engine/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// metrics may be nil, in which case /metrics is not served.
func New(
	catalogHandler *handler.CatalogHandler,
	productHandler *handler.ProductHandler,
	metrics http.Handler,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Read path
	mux.HandleFunc("GET /api/shops/{shopId}/products", catalogHandler.ShopProducts)
	mux.HandleFunc("GET /api/products", catalogHandler.Products)
	mux.HandleFunc("GET /api/search", catalogHandler.Search)

	// Write path
	mux.HandleFunc("POST /api/products", productHandler.Create)
	mux.HandleFunc("PUT /api/products/{id}", productHandler.Update)
	mux.HandleFunc("PATCH /api/products/{id}/availability", productHandler.SetAvailability)
	mux.HandleFunc("DELETE /api/products/{id}", productHandler.Delete)
	mux.HandleFunc("POST /api/products/{id}/stock", productHandler.AdjustStock)

	// Apply middleware in order: Recovery -> Logging -> RequestID -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
