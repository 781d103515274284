// AngelaMos | 2026
// handler.go

package ad

import (
	"errors"
	"net/http"

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, access func(http.Handler) http.Handler,
) {
	r.Route("/ads", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(access)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{adID}", h.Get)
		r.Patch("/{adID}", h.Update)
		r.Post("/{adID}/toggle", h.Toggle)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		ClientID: q.Get("client_id"),
		BriefID:  q.Get("brief_id"),
		Status:   q.Get("status"),
	}

	for _, id := range []string{params.ClientID, params.BriefID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			core.BadRequest(w, "client_id and brief_id must be UUIDs")
			return
		}
	}
	switch params.Status {
	case "", StatusActive, StatusPaused, StatusCompleted:
	default:
		core.BadRequest(w, "unknown ad status")
		return
	}

	ads, err := h.service.List(r.Context(), params)
	if err != nil {
		core.StoreFailure(w, "ad", err)
		return
	}

	core.OK(w, ads)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := adID(w, r)
	if !ok {
		return
	}

	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.StoreFailure(w, "ad", err)
		return
	}

	core.OK(w, v)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	v, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.StoreFailure(w, "ad", err)
		return
	}

	core.Created(w, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := adID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	v, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if errors.Is(err, ErrCompleted) {
		core.JSONError(w, core.ConflictError("completed ads cannot be reopened"))
		return
	}
	if err != nil {
		core.StoreFailure(w, "ad", err)
		return
	}

	core.OK(w, v)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := adID(w, r)
	if !ok {
		return
	}

	v, err := h.service.Toggle(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		if errors.Is(err, ErrCompleted) {
			core.JSONError(w, core.ConflictError("completed ads cannot be toggled"))
			return
		}
		core.StoreFailure(w, "ad", err)
		return
	}

	core.OK(w, v)
}

func adID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "adID")
	if _, err := uuid.Parse(id); err != nil {
		core.BadRequest(w, "ad id must be a UUID")
		return "", false
	}
	return id, true
}
