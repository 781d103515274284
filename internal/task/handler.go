// AngelaMos | 2026
// handler.go

package task

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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

// RegisterRoutes mounts /tasks. access guards every route; planners
// guards creating and editing tasks.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, access, planners func(http.Handler) http.Handler,
) {
	r.Route("/tasks", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(access)

		r.Get("/", h.List)
		r.With(planners).Post("/", h.Create)

		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.With(planners).Patch("/", h.Update)
			r.Post("/transition", h.Transition)
			r.Get("/comments", h.Comments)
			r.Post("/comments", h.AddComment)
			r.Get("/checklist", h.Checklist)
			r.Put("/checklist", h.SaveChecklist)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		BriefID:    q.Get("brief_id"),
		AssigneeID: q.Get("assignee_id"),
		Status:     workflow.Status(q.Get("status")),
		Type:       workflow.TaskType(q.Get("type")),
	}

	for _, id := range []string{params.BriefID, params.AssigneeID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			core.BadRequest(w, "brief_id and assignee_id must be UUIDs")
			return
		}
	}
	if params.Status != "" && !params.Status.Valid() {
		core.BadRequest(w, "unknown status")
		return
	}
	if params.Type != "" && !params.Type.Valid() {
		core.BadRequest(w, "unknown task type")
		return
	}

	tasks, err := h.service.List(r.Context(), params)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, tasks)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	t, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		fail(w, err)
		return
	}

	core.Created(w, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	t, err := h.service.Update(r.Context(), middleware.GetActor(r.Context()), id, req)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, t)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	t, err := h.service.Transition(r.Context(), middleware.GetActor(r.Context()), id, req.Status)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, t)
}

func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	comments, err := h.service.Comments(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, comments)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	c, err := h.service.AddComment(r.Context(), middleware.GetActor(r.Context()), id, req)
	if err != nil {
		fail(w, err)
		return
	}

	core.Created(w, c)
}

func (h *Handler) Checklist(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Checklist(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "checklist")
			return
		}
		fail(w, err)
		return
	}

	core.OK(w, c)
}

func (h *Handler) SaveChecklist(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req ChecklistRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	c, err := h.service.SaveChecklist(r.Context(), middleware.GetActor(r.Context()), id, req)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			core.JSONError(w, core.ConflictError(
				"checklist can only be saved while the task is in review",
			))
			return
		}
		fail(w, err)
		return
	}

	core.OK(w, c)
}

func fail(w http.ResponseWriter, err error) {
	if appErr, ok := workflow.AppError(err); ok {
		core.JSONError(w, appErr)
		return
	}
	core.StoreFailure(w, "task", err)
}

func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "taskID")
	if _, err := uuid.Parse(id); err != nil {
		core.BadRequest(w, "task id must be a UUID")
		return "", false
	}
	return id, true
}
