package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/metrics", h.HandleMetrics)
		r.Post("/drawdowns", h.HandleDrawdowns)
		r.Post("/rolling", h.HandleRolling)
		r.Post("/backtest", h.HandleBacktest)
		r.Post("/sweep", h.HandleSweep)
		r.Post("/performance", h.HandlePerformance)
		r.Post("/compare", h.HandleCompare)
		r.Post("/stress", h.HandleStress)

		r.Post("/risk/var", h.HandleVaR)

		r.Route("/portfolio", func(r chi.Router) {
			r.Post("/optimize", h.HandleOptimize)
			r.Post("/frontier", h.HandleFrontier)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.HandleListRuns)
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetRun(w, r, chi.URLParam(r, "id"))
			})
		})
	})
}
