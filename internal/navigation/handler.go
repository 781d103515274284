// AngelaMos | 2026
// handler.go

package navigation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/workflow"
)

// Identity exposes the caller's role and session state from the request.
type Identity interface {
	Role(r *http.Request) workflow.Role
	Authenticated(r *http.Request) bool
}

type Handler struct {
	policy   Policy
	identity Identity
}

func NewHandler(policy Policy, identity Identity) *Handler {
	return &Handler{policy: policy, identity: identity}
}

type MenuResponse struct {
	Role         workflow.Role `json:"role"`
	RoleLabel    string        `json:"role_label"`
	Destinations []Destination `json:"destinations"`
}

// RegisterRoutes mounts the menu and path resolution endpoints. Resolution
// works for signed-out callers, so optionalAuth only decorates the request.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/navigation", func(r chi.Router) {
		r.With(authenticator).Get("/", h.Menu)
		r.With(optionalAuth).Get("/resolve", h.Resolve)
	})
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	role := h.identity.Role(r)

	core.OK(w, MenuResponse{
		Role:         role,
		RoleLabel:    role.Label(),
		Destinations: h.policy.Visible(role),
	})
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		core.BadRequest(w, "path is required")
		return
	}

	core.OK(w, Resolve(path, h.identity.Authenticated(r)))
}
