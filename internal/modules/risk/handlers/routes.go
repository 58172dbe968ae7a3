package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk metrics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/summary", h.HandleGetSummary)
		r.Post("/volatility", h.HandleGetVolatility)
		r.Post("/beta", h.HandleGetBeta)
		r.Post("/sharpe", h.HandleGetSharpe)
		r.Post("/cvar", h.HandleGetCVaR)
		r.Post("/sortino", h.HandleGetSortino)
		r.Post("/decomposition", h.HandleGetDecomposition)
	})
}
