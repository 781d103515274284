// AngelaMos | 2026
// repository.go

package analytics

import (
	"context"
	"fmt"

	"github.com/marketflow/agency-api/internal/core"
)

type Repository interface {
	Ads(ctx context.Context, clientID string) ([]AdMetrics, error)
	Clients(ctx context.Context) ([]ClientRow, error)
	Briefs(ctx context.Context) ([]BriefRow, error)
	Tasks(ctx context.Context) ([]TaskRow, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Ads(
	ctx context.Context,
	clientID string,
) ([]AdMetrics, error) {
	query := `
		SELECT id, client_id, status,
		       budget::float8 AS budget, spent::float8 AS spent,
		       leads, reach, ctr::float8 AS ctr
		FROM ads`
	var args []any
	if clientID != "" {
		query += ` WHERE client_id = $1`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC`

	ads := []AdMetrics{}
	if err := r.db.SelectContext(ctx, &ads, query, args...); err != nil {
		return nil, fmt.Errorf("list ad metrics: %w", err)
	}
	return ads, nil
}

func (r *repository) Clients(ctx context.Context) ([]ClientRow, error) {
	query := `
		SELECT id, name, monthly_budget::float8 AS monthly_budget, is_active
		FROM clients
		ORDER BY name`

	clients := []ClientRow{}
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("list client rows: %w", err)
	}
	return clients, nil
}

func (r *repository) Briefs(ctx context.Context) ([]BriefRow, error) {
	query := `SELECT id, client_id, status::text AS status FROM briefs`

	briefs := []BriefRow{}
	if err := r.db.SelectContext(ctx, &briefs, query); err != nil {
		return nil, fmt.Errorf("list brief rows: %w", err)
	}
	return briefs, nil
}

func (r *repository) Tasks(ctx context.Context) ([]TaskRow, error) {
	query := `SELECT id, status::text AS status FROM tasks`

	tasks := []TaskRow{}
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list task rows: %w", err)
	}
	return tasks, nil
}
