// AngelaMos | 2026
// service.go

package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/cache"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Auditor interface {
	RecordQuietly(ctx context.Context, c audit.Change)
}

type Service struct {
	repo    Repository
	cache   *cache.Cache
	audit   Auditor
	metrics *core.Metrics
}

func NewService(
	repo Repository,
	c *cache.Cache,
	auditor Auditor,
	metrics *core.Metrics,
) *Service {
	return &Service{repo: repo, cache: c, audit: auditor, metrics: metrics}
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Task, error) {
	scope := cache.Scope{
		Collections: []string{cache.Tasks},
		Params:      params,
	}

	return cache.Fetch(ctx, s.cache, scope, func(ctx context.Context) ([]Task, error) {
		return s.repo.List(ctx, params)
	})
}

func (s *Service) Get(
	ctx context.Context,
	actor workflow.Actor,
	id string,
) (*View, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &View{
		Task:                 *t,
		AvailableTransitions: workflow.Available(actor.Role, workflow.TaskSubject(t.Type), t.Status),
	}, nil
}

func (s *Service) Create(
	ctx context.Context,
	actor workflow.Actor,
	req CreateRequest,
) (*Task, error) {
	t := New(req.BriefID, InitialTask{
		Type:        req.Type,
		AssigneeID:  req.AssigneeID,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	}, PriorityNormal, req.Deadline)

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: t.ID,
		Action:   audit.ActionCreate,
		UserID:   actor.UserID,
		New:      t,
	})

	return t, nil
}

// New builds a task in its initial status for briefID. Priority and
// deadline fall back to the given defaults when initial leaves them empty.
func New(briefID string, initial InitialTask, priority, deadline string) *Task {
	t := &Task{
		ID:          uuid.New().String(),
		BriefID:     briefID,
		AssigneeID:  initial.AssigneeID,
		Type:        initial.Type,
		Description: initial.Description,
		Status:      workflow.InitialStatus(workflow.TaskSubject(initial.Type)),
		Priority:    initial.Priority,
		Deadline:    initial.Deadline,
	}
	if t.Priority == "" {
		t.Priority = priority
	}
	if t.Deadline == "" {
		t.Deadline = deadline
	}
	return t
}

func (s *Service) Update(
	ctx context.Context,
	actor workflow.Actor,
	id string,
	req UpdateRequest,
) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *t

	req.apply(t)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: t.ID,
		Action:   audit.ActionUpdate,
		UserID:   actor.UserID,
		Old:      before,
		New:      t,
	})

	return t, nil
}

// Transition moves a task to status to when the engine allows the
// actor's role on this task type.
func (s *Service) Transition(
	ctx context.Context,
	actor workflow.Actor,
	id string,
	to workflow.Status,
) (_ *Task, err error) {
	ctx, span := core.StartSpan(ctx, "task.transition",
		attribute.String("task.id", id),
		attribute.String("status.to", string(to)),
		attribute.String("actor.role", string(actor.Role)),
	)
	defer func() {
		s.metrics.ObserveTransition("task", string(to), workflow.Outcome(err))
		core.EndSpan(span, err)
	}()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := workflow.Check(workflow.Transition{
		Subject: workflow.TaskSubject(t.Type),
		From:    t.Status,
		To:      to,
		Role:    actor.Role,
	}); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, t.Status, to)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, audit.Change{
		RecordID: id,
		Action:   audit.ActionTransition,
		UserID:   actor.UserID,
		Old:      map[string]workflow.Status{"status": t.Status},
		New:      map[string]workflow.Status{"status": to},
	})
	s.cache.InvalidateQuietly(ctx, cache.Briefs)

	return updated, nil
}

func (s *Service) Comments(ctx context.Context, taskID string) ([]Comment, error) {
	if _, err := s.repo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repo.Comments(ctx, taskID)
}

func (s *Service) AddComment(
	ctx context.Context,
	actor workflow.Actor,
	taskID string,
	req CommentRequest,
) (*Comment, error) {
	c := &Comment{
		ID:      uuid.New().String(),
		TaskID:  taskID,
		UserID:  actor.UserID,
		Content: req.Content,
	}

	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Checklist(ctx context.Context, taskID string) (*Checklist, error) {
	return s.repo.Checklist(ctx, taskID)
}

// SaveChecklist records a QC review. Only admins and the QC role that
// covers the task type may review, and only while the task is in review.
func (s *Service) SaveChecklist(
	ctx context.Context,
	actor workflow.Actor,
	taskID string,
	req ChecklistRequest,
) (*Checklist, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !CanReview(actor.Role, t.Type) {
		return nil, fmt.Errorf("review %s task as %q: %w", t.Type, actor.Role, core.ErrForbidden)
	}
	if t.Status != workflow.StatusReview {
		return nil, fmt.Errorf("checklist on %s task: %w", t.Status, core.ErrConflict)
	}

	c := &Checklist{
		ID:                 uuid.New().String(),
		TaskID:             taskID,
		ReviewerID:         actor.UserID,
		ClientPriorityMet:  req.ClientPriorityMet,
		BrandTone:          req.BrandTone,
		PlatformGuidelines: req.PlatformGuidelines,
		GrammarClarity:     req.GrammarClarity,
		CTAAlignment:       req.CTAAlignment,
		Comments:           req.Comments,
		IsApproved:         req.IsApproved,
	}

	if err := s.repo.SaveChecklist(ctx, c); err != nil {
		return nil, err
	}
	s.audit.RecordQuietly(ctx, audit.Change{
		Table:    "qc_checklists",
		RecordID: c.ID,
		Action:   audit.ActionUpdate,
		UserID:   actor.UserID,
		New:      c,
	})

	return c, nil
}

// CanReview reports whether role may fill in the QC checklist for a task
// of type t.
func CanReview(role workflow.Role, t workflow.TaskType) bool {
	switch role {
	case workflow.RoleAdmin:
		return true
	case workflow.RoleCopyQC, workflow.RoleDesignQC:
		return workflow.Covers(role, t)
	default:
		return false
	}
}

func (s *Service) changed(ctx context.Context, change audit.Change) {
	change.Table = "tasks"
	s.audit.RecordQuietly(ctx, change)
	s.cache.InvalidateQuietly(ctx, cache.Tasks)
}
