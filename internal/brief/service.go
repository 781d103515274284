// AngelaMos | 2026
// service.go

package brief

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/cache"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/task"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Auditor interface {
	RecordQuietly(ctx context.Context, c audit.Change)
}

// TaskReader is the part of the task store briefs read from.
type TaskReader interface {
	List(ctx context.Context, params task.ListParams) ([]task.Task, error)
	StatusesByBrief(ctx context.Context, briefIDs []string) (map[string][]workflow.Status, error)
}

type Service struct {
	repo    Repository
	tasks   TaskReader
	unit    UnitOfWork
	cache   *cache.Cache
	audit   Auditor
	metrics *core.Metrics
}

func NewService(
	repo Repository,
	tasks TaskReader,
	unit UnitOfWork,
	c *cache.Cache,
	auditor Auditor,
	metrics *core.Metrics,
) *Service {
	return &Service{
		repo:    repo,
		tasks:   tasks,
		unit:    unit,
		cache:   c,
		audit:   auditor,
		metrics: metrics,
	}
}

// List returns briefs matching params, each with the status derived from
// its tasks.
func (s *Service) List(ctx context.Context, params ListParams) ([]Summary, error) {
	scope := cache.Scope{
		Collections: []string{cache.Briefs, cache.Tasks},
		Params:      params,
	}

	return cache.Fetch(ctx, s.cache, scope, func(ctx context.Context) ([]Summary, error) {
		briefs, err := s.repo.List(ctx, params)
		if err != nil {
			return nil, err
		}

		ids := make([]string, len(briefs))
		for i := range briefs {
			ids[i] = briefs[i].ID
		}
		statuses, err := s.tasks.StatusesByBrief(ctx, ids)
		if err != nil {
			return nil, err
		}

		out := make([]Summary, len(briefs))
		for i := range briefs {
			own := statuses[briefs[i].ID]
			out[i] = Summary{
				Brief:         briefs[i],
				DerivedStatus: workflow.DeriveBriefStatus(own),
				TaskCount:     len(own),
			}
		}
		return out, nil
	})
}

func (s *Service) Get(
	ctx context.Context,
	actor workflow.Actor,
	id string,
) (*Detail, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, task.ListParams{BriefID: id})
	if err != nil {
		return nil, err
	}

	return s.detail(actor, b, tasks), nil
}

// Create stores a brief and its initial tasks in one transaction. A
// rejected brief leaves no task behind.
func (s *Service) Create(
	ctx context.Context,
	actor workflow.Actor,
	req CreateRequest,
) (_ *Detail, err error) {
	ctx, span := core.StartSpan(ctx, "brief.create",
		attribute.String("client.id", req.ClientID),
		attribute.Int("tasks.count", len(req.Tasks)),
	)
	defer func() { core.EndSpan(span, err) }()

	b := &Brief{
		ID:             uuid.New().String(),
		ClientID:       req.ClientID,
		Title:          req.Title,
		Objective:      req.Objective,
		TargetAudience: req.TargetAudience,
		Platforms:      pq.StringArray(req.Platforms),
		Budget:         req.Budget,
		Priority:       req.Priority,
		Deadline:       req.Deadline,
		Status:         workflow.InitialStatus(workflow.BriefSubject()),
		CreatedBy:      actor.UserID,
	}
	if b.Platforms == nil {
		b.Platforms = pq.StringArray{}
	}
	if b.Priority == "" {
		b.Priority = task.PriorityNormal
	}

	tasks := make([]task.Task, 0, len(req.Tasks))
	err = s.unit.Do(ctx, func(st Stores) error {
		tasks = tasks[:0]

		if err := st.Briefs.Create(ctx, b); err != nil {
			return err
		}
		for _, initial := range req.Tasks {
			t := task.New(b.ID, initial, b.Priority, b.Deadline)
			if err := st.Tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("create initial %s task: %w", t.Type, err)
			}
			tasks = append(tasks, *t)
		}

		return st.Audit.Record(ctx, audit.Change{
			Table:    "briefs",
			RecordID: b.ID,
			Action:   audit.ActionCreate,
			UserID:   actor.UserID,
			New:      map[string]any{"brief": b, "tasks": tasks},
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateQuietly(ctx, cache.Briefs)
	if len(tasks) > 0 {
		s.cache.InvalidateQuietly(ctx, cache.Tasks)
	}

	return s.detail(actor, b, tasks), nil
}

func (s *Service) Update(
	ctx context.Context,
	actor workflow.Actor,
	id string,
	req UpdateRequest,
) (*Brief, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *b

	req.apply(b)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: id,
		Action:   audit.ActionUpdate,
		UserID:   actor.UserID,
		Old:      before,
		New:      b,
	})

	return b, nil
}

// Transition moves the brief's own status. Worker stages are reserved
// for brief managers.
func (s *Service) Transition(
	ctx context.Context,
	actor workflow.Actor,
	id string,
	to workflow.Status,
) (_ *Brief, err error) {
	ctx, span := core.StartSpan(ctx, "brief.transition",
		attribute.String("brief.id", id),
		attribute.String("status.to", string(to)),
		attribute.String("actor.role", string(actor.Role)),
	)
	defer func() {
		s.metrics.ObserveTransition("brief", string(to), workflow.Outcome(err))
		core.EndSpan(span, err)
	}()

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := workflow.Check(workflow.Transition{
		Subject: workflow.BriefSubject(),
		From:    b.Status,
		To:      to,
		Role:    actor.Role,
	}); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, b.Status, to)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, audit.Change{
		RecordID: id,
		Action:   audit.ActionTransition,
		UserID:   actor.UserID,
		Old:      map[string]workflow.Status{"status": b.Status},
		New:      map[string]workflow.Status{"status": to},
	})

	return updated, nil
}

func (s *Service) detail(actor workflow.Actor, b *Brief, tasks []task.Task) *Detail {
	statuses := make([]workflow.Status, len(tasks))
	for i := range tasks {
		statuses[i] = tasks[i].Status
	}

	return &Detail{
		Brief:                *b,
		DerivedStatus:        workflow.DeriveBriefStatus(statuses),
		AvailableTransitions: workflow.Available(actor.Role, workflow.BriefSubject(), b.Status),
		Tasks:                tasks,
	}
}

func (s *Service) changed(ctx context.Context, change audit.Change) {
	change.Table = "briefs"
	s.audit.RecordQuietly(ctx, change)
	s.cache.InvalidateQuietly(ctx, cache.Briefs)
}
