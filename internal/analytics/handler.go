// AngelaMos | 2026
// handler.go

package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the analytics endpoints. The dashboard has its own
// access guard because every role sees it.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, dashboardAccess, analyticsAccess func(http.Handler) http.Handler,
) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(authenticator)

		r.With(dashboardAccess).Get("/dashboard", h.Dashboard)

		r.Group(func(r chi.Router) {
			r.Use(analyticsAccess)
			r.Get("/ads", h.Ads)
			r.Get("/clients", h.Clients)
		})
	})
}

func (h *Handler) Ads(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID != "" {
		if _, err := uuid.Parse(clientID); err != nil {
			core.BadRequest(w, "client_id must be a valid UUID")
			return
		}
	}

	summary, err := h.service.AdSummary(r.Context(), clientID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}

func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ClientSummaries(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summaries)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}
