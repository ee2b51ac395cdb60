package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/shopsim-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты API статистики.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/stats", func(r chi.Router) {
		r.Get("/", h.Overview)
		r.Get("/top-products", h.TopProducts)
		r.Get("/top-spenders", h.TopSpenders)
		r.Get("/low-stock", h.LowStock)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
