// AngelaMos | 2026
// repository.go

package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, t *Task) error
	UpdateStatus(ctx context.Context, id string, from, to workflow.Status) (*Task, error)
	List(ctx context.Context, params ListParams) ([]Task, error)
	StatusesByBrief(ctx context.Context, briefIDs []string) (map[string][]workflow.Status, error)
	Comments(ctx context.Context, taskID string) ([]Comment, error)
	AddComment(ctx context.Context, c *Comment) error
	Checklist(ctx context.Context, taskID string) (*Checklist, error)
	SaveChecklist(ctx context.Context, c *Checklist) error
}

const taskColumns = `
	id, brief_id, assignee_id, type::text AS type, description,
	status::text AS status, priority::text AS priority,
	to_char(deadline, 'YYYY-MM-DD') AS deadline, created_at, updated_at`

const checklistColumns = `
	id, task_id, reviewer_id, client_priority_met, brand_tone,
	platform_guidelines, grammar_clarity, cta_alignment, comments,
	is_approved, reviewed_at, created_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO tasks (
			id, brief_id, assignee_id, type, description, status, priority,
			deadline
		) VALUES (
			$1, $2, $3, $4::task_type, $5, $6::task_status,
			$7::priority_level, $8::date
		)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.BriefID,
		t.AssigneeID,
		string(t.Type),
		t.Description,
		string(t.Status),
		t.Priority,
		t.Deadline,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var t Task
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	return &t, nil
}

func (r *repository) Update(ctx context.Context, t *Task) error {
	query := `
		UPDATE tasks
		SET assignee_id = $2, description = $3,
		    priority = $4::priority_level, deadline = $5::date,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &t.UpdatedAt, query,
		t.ID,
		t.AssigneeID,
		t.Description,
		t.Priority,
		t.Deadline,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update task: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update task: %w", core.MapStoreError(err))
	}

	return nil
}

// UpdateStatus moves the task only if it is still in status from.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	from, to workflow.Status,
) (*Task, error) {
	query := `
		UPDATE tasks
		SET status = $3::task_status, updated_at = NOW()
		WHERE id = $1 AND status = $2::task_status
		RETURNING ` + taskColumns

	var t Task
	err := r.db.GetContext(ctx, &t, query, id, string(from), string(to))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("update task status: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}

	return &t, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Task, error) {
	query, args := listQuery(params)

	tasks := []Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// listQuery selects tasks newest first with the title of their brief and
// the name of its client.
func listQuery(params ListParams) (string, []any) {
	conditions := []string{"TRUE"}
	var args []any
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	add("t.brief_id = $%d::uuid", params.BriefID)
	add("t.assignee_id = $%d::uuid", params.AssigneeID)
	add("t.status = $%d::task_status", string(params.Status))
	add("t.type = $%d::task_type", string(params.Type))

	query := `
		SELECT t.id, t.brief_id, t.assignee_id, t.type::text AS type,
		       t.description, t.status::text AS status,
		       t.priority::text AS priority,
		       to_char(t.deadline, 'YYYY-MM-DD') AS deadline,
		       t.created_at, t.updated_at,
		       b.title AS brief_title, c.name AS client_name
		FROM tasks t
		LEFT JOIN briefs b ON b.id = t.brief_id
		LEFT JOIN clients c ON c.id = b.client_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY t.created_at DESC`

	return query, args
}

func (r *repository) StatusesByBrief(
	ctx context.Context,
	briefIDs []string,
) (map[string][]workflow.Status, error) {
	out := make(map[string][]workflow.Status, len(briefIDs))
	if len(briefIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT brief_id, status::text AS status
		FROM tasks
		WHERE brief_id = ANY($1::uuid[])`

	var rows []struct {
		BriefID string          `db:"brief_id"`
		Status  workflow.Status `db:"status"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.StringArray(briefIDs)); err != nil {
		return nil, fmt.Errorf("task statuses by brief: %w", err)
	}

	for _, row := range rows {
		out[row.BriefID] = append(out[row.BriefID], row.Status)
	}

	return out, nil
}

func (r *repository) Comments(ctx context.Context, taskID string) ([]Comment, error) {
	query := `
		SELECT c.id, c.task_id, c.user_id, p.name AS author_name,
		       c.content, c.created_at
		FROM task_comments c
		JOIN profiles p ON p.id = c.user_id
		WHERE c.task_id = $1
		ORDER BY c.created_at ASC`

	comments := []Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, taskID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

func (r *repository) AddComment(ctx context.Context, c *Comment) error {
	query := `
		WITH inserted AS (
			INSERT INTO task_comments (id, task_id, user_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING id, task_id, user_id, content, created_at
		)
		SELECT i.id, i.task_id, i.user_id, p.name AS author_name,
		       i.content, i.created_at
		FROM inserted i
		JOIN profiles p ON p.id = i.user_id`

	err := r.db.GetContext(ctx, c, query, c.ID, c.TaskID, c.UserID, c.Content)
	if err != nil {
		return fmt.Errorf("add comment: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) Checklist(ctx context.Context, taskID string) (*Checklist, error) {
	query := `SELECT ` + checklistColumns + ` FROM qc_checklists WHERE task_id = $1`

	var c Checklist
	err := r.db.GetContext(ctx, &c, query, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get checklist: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get checklist: %w", err)
	}

	return &c, nil
}

// SaveChecklist creates or replaces the task's checklist. reviewed_at is
// set once a verdict is given.
func (r *repository) SaveChecklist(ctx context.Context, c *Checklist) error {
	query := `
		INSERT INTO qc_checklists (
			id, task_id, reviewer_id, client_priority_met, brand_tone,
			platform_guidelines, grammar_clarity, cta_alignment, comments,
			is_approved, reviewed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			CASE WHEN $10::boolean IS NULL THEN NULL ELSE NOW() END
		)
		ON CONFLICT (task_id) DO UPDATE SET
			reviewer_id = EXCLUDED.reviewer_id,
			client_priority_met = EXCLUDED.client_priority_met,
			brand_tone = EXCLUDED.brand_tone,
			platform_guidelines = EXCLUDED.platform_guidelines,
			grammar_clarity = EXCLUDED.grammar_clarity,
			cta_alignment = EXCLUDED.cta_alignment,
			comments = EXCLUDED.comments,
			is_approved = EXCLUDED.is_approved,
			reviewed_at = EXCLUDED.reviewed_at
		RETURNING ` + checklistColumns

	err := r.db.GetContext(ctx, c, query,
		c.ID,
		c.TaskID,
		c.ReviewerID,
		c.ClientPriorityMet,
		c.BrandTone,
		c.PlatformGuidelines,
		c.GrammarClarity,
		c.CTAAlignment,
		c.Comments,
		c.IsApproved,
	)
	if err != nil {
		return fmt.Errorf("save checklist: %w", core.MapStoreError(err))
	}

	return nil
}
