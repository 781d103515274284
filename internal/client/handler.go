// AngelaMos | 2026
// handler.go

package client

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
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

// RegisterRoutes mounts /clients. readers guards every route; managers
// additionally guards writes.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, readers, managers func(http.Handler) http.Handler,
) {
	r.Route("/clients", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(readers)

		r.Get("/", h.List)
		r.Get("/{clientID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(managers)
			r.Post("/", h.Create)
			r.Patch("/{clientID}", h.Update)
			r.Post("/{clientID}/deactivate", h.Deactivate)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{Search: r.URL.Query().Get("search")}

	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			core.BadRequest(w, "active must be true or false")
			return
		}
		params.Active = &active
	}

	clients, err := h.service.List(r.Context(), params)
	if err != nil {
		core.StoreFailure(w, "client", err)
		return
	}

	core.OK(w, clients)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.StoreFailure(w, "client", err)
		return
	}

	core.OK(w, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	c, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.StoreFailure(w, "client", err)
		return
	}

	core.Created(w, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	c, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		core.StoreFailure(w, "client", err)
		return
	}

	core.OK(w, c)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Deactivate(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		core.StoreFailure(w, "client", err)
		return
	}

	core.OK(w, c)
}

func clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "clientID")
	if _, err := uuid.Parse(id); err != nil {
		core.BadRequest(w, "client id must be a UUID")
		return "", false
	}
	return id, true
}
