// AngelaMos | 2026
// repository.go

package brief

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Repository interface {
	Create(ctx context.Context, b *Brief) error
	GetByID(ctx context.Context, id string) (*Brief, error)
	Update(ctx context.Context, b *Brief) error
	UpdateStatus(ctx context.Context, id string, from, to workflow.Status) (*Brief, error)
	List(ctx context.Context, params ListParams) ([]Brief, error)
}

const briefColumns = `
	id, client_id, title, objective, target_audience,
	platforms::text[] AS platforms, budget::float8 AS budget,
	priority::text AS priority, to_char(deadline, 'YYYY-MM-DD') AS deadline,
	status::text AS status, created_by, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Brief) error {
	query := `
		INSERT INTO briefs (
			id, client_id, title, objective, target_audience, platforms,
			budget, priority, deadline, status, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6::platform_type[],
			$7, $8::priority_level, $9::date, $10::task_status, $11
		)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID,
		b.ClientID,
		b.Title,
		b.Objective,
		b.TargetAudience,
		b.Platforms,
		b.Budget,
		b.Priority,
		b.Deadline,
		string(b.Status),
		b.CreatedBy,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create brief: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Brief, error) {
	query := `SELECT ` + briefColumns + ` FROM briefs WHERE id = $1`

	var b Brief
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get brief: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get brief: %w", err)
	}

	return &b, nil
}

func (r *repository) Update(ctx context.Context, b *Brief) error {
	query := `
		UPDATE briefs
		SET title = $2, objective = $3, target_audience = $4,
		    platforms = $5::platform_type[], budget = $6,
		    priority = $7::priority_level, deadline = $8::date,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &b.UpdatedAt, query,
		b.ID,
		b.Title,
		b.Objective,
		b.TargetAudience,
		b.Platforms,
		b.Budget,
		b.Priority,
		b.Deadline,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update brief: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update brief: %w", core.MapStoreError(err))
	}

	return nil
}

// UpdateStatus moves the brief only if it is still in status from.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	from, to workflow.Status,
) (*Brief, error) {
	query := `
		UPDATE briefs
		SET status = $3::task_status, updated_at = NOW()
		WHERE id = $1 AND status = $2::task_status
		RETURNING ` + briefColumns

	var b Brief
	err := r.db.GetContext(ctx, &b, query, id, string(from), string(to))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("update brief status: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update brief status: %w", err)
	}

	return &b, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Brief, error) {
	conditions := []string{"TRUE"}
	var args []any
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	add("client_id = $%d::uuid", params.ClientID)
	add("status = $%d::task_status", string(params.Status))
	add("deadline >= $%d::date", params.DeadlineFrom)
	add("deadline <= $%d::date", params.DeadlineTo)

	query := `SELECT ` + briefColumns + `
		FROM briefs
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY deadline ASC, created_at DESC`

	briefs := []Brief{}
	if err := r.db.SelectContext(ctx, &briefs, query, args...); err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}

	return briefs, nil
}
