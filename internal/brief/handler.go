// AngelaMos | 2026
// handler.go

package brief

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
	"github.com/marketflow/agency-api/internal/task"
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

// RegisterRoutes mounts /briefs. access guards every route; managers
// guards creating and editing briefs.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, access, managers func(http.Handler) http.Handler,
) {
	r.Route("/briefs", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(access)

		r.Get("/", h.List)
		r.With(managers).Post("/", h.Create)

		r.Route("/{briefID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.With(managers).Patch("/", h.Update)
			r.Post("/transition", h.Transition)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		ClientID:     q.Get("client_id"),
		Status:       workflow.Status(q.Get("status")),
		DeadlineFrom: q.Get("deadline_from"),
		DeadlineTo:   q.Get("deadline_to"),
	}

	if params.ClientID != "" {
		if _, err := uuid.Parse(params.ClientID); err != nil {
			core.BadRequest(w, "client_id must be a UUID")
			return
		}
	}
	if params.Status != "" && !params.Status.Valid() {
		core.BadRequest(w, "unknown status")
		return
	}
	for _, d := range []string{params.DeadlineFrom, params.DeadlineTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(task.DateLayout, d); err != nil {
			core.BadRequest(w, "deadline_from and deadline_to must be YYYY-MM-DD")
			return
		}
	}

	briefs, err := h.service.List(r.Context(), params)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, briefs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := briefID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	detail, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		fail(w, err)
		return
	}

	core.Created(w, detail)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := briefID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	b, err := h.service.Update(r.Context(), middleware.GetActor(r.Context()), id, req)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, b)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := briefID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	b, err := h.service.Transition(r.Context(), middleware.GetActor(r.Context()), id, req.Status)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, b)
}

func fail(w http.ResponseWriter, err error) {
	if appErr, ok := workflow.AppError(err); ok {
		core.JSONError(w, appErr)
		return
	}
	core.StoreFailure(w, "brief", err)
}

func briefID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "briefID")
	if _, err := uuid.Parse(id); err != nil {
		core.BadRequest(w, "brief id must be a UUID")
		return "", false
	}
	return id, true
}
