// AngelaMos | 2026
// handler.go

package profile

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/profiles", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/profiles", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Put("/{profileID}/role", h.AssignRole)
		r.Delete("/{profileID}", h.Delete)
	})
}

// List backs the team view and assignee pickers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 50),
		Search:   q.Get("search"),
		Role:     workflow.Role(q.Get("role")),
	}
	if params.Role != workflow.RoleNone && !params.Role.Valid() {
		core.BadRequest(w, "role must be one of the agency roles")
		return
	}
	params.Normalize()

	page, err := h.service.List(r.Context(), params)
	if err != nil {
		core.StoreFailure(w, "profile", err)
		return
	}

	core.Paginated(w, page.Profiles, params.Page, params.PageSize, page.Total)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.StoreFailure(w, "profile", err)
		return
	}

	core.OK(w, ToResponse(p))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	p, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.StoreFailure(w, "profile", err)
		return
	}

	core.OK(w, ToResponse(p))
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	p, err := h.service.AssignRole(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "profileID"),
		req.Role,
	)
	if err != nil {
		core.StoreFailure(w, "profile", err)
		return
	}

	core.OK(w, ToResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "profileID"),
	)
	if err != nil {
		core.StoreFailure(w, "profile", err)
		return
	}

	core.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
