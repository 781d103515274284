// AngelaMos | 2026
// repository.go

package ad

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/marketflow/agency-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *Ad) error
	GetByID(ctx context.Context, id string) (*Ad, error)
	Update(ctx context.Context, a *Ad) error
	SetStatus(ctx context.Context, id, from, to string) (*Ad, error)
	List(ctx context.Context, params ListParams) ([]Ad, error)
}

const adColumns = `
	id, brief_id, client_id, type::text AS type, platform::text AS platform,
	budget::float8 AS budget, spent::float8 AS spent, leads, reach,
	ctr::float8 AS ctr, status,
	to_char(start_date, 'YYYY-MM-DD') AS start_date,
	to_char(end_date, 'YYYY-MM-DD') AS end_date,
	created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Ad) error {
	query := `
		INSERT INTO ads (
			id, brief_id, client_id, type, platform, budget, spent, leads,
			reach, ctr, status, start_date, end_date
		) VALUES (
			$1, $2, $3, $4::ad_type, $5::platform_type, $6, $7, $8,
			$9, $10, $11, COALESCE(NULLIF($12, '')::date, CURRENT_DATE),
			$13::date
		)
		RETURNING to_char(start_date, 'YYYY-MM-DD'), created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.BriefID,
		a.ClientID,
		a.Type,
		a.Platform,
		a.Budget,
		a.Spent,
		a.Leads,
		a.Reach,
		a.CTR,
		a.Status,
		a.StartDate,
		a.EndDate,
	).Scan(&a.StartDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ad: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Ad, error) {
	query := `SELECT ` + adColumns + ` FROM ads WHERE id = $1`

	var a Ad
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get ad: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ad: %w", err)
	}

	return &a, nil
}

func (r *repository) Update(ctx context.Context, a *Ad) error {
	query := `
		UPDATE ads
		SET budget = $2, spent = $3, leads = $4, reach = $5, ctr = $6,
		    end_date = $7::date, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &a.UpdatedAt, query,
		a.ID,
		a.Budget,
		a.Spent,
		a.Leads,
		a.Reach,
		a.CTR,
		a.EndDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update ad: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update ad: %w", core.MapStoreError(err))
	}

	return nil
}

// SetStatus changes the status only if it is still from.
func (r *repository) SetStatus(
	ctx context.Context,
	id, from, to string,
) (*Ad, error) {
	query := `
		UPDATE ads
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + adColumns

	var a Ad
	err := r.db.GetContext(ctx, &a, query, id, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("set ad status: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("set ad status: %w", err)
	}

	return &a, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Ad, error) {
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
	add("brief_id = $%d::uuid", params.BriefID)
	add("status = $%d", params.Status)

	query := `SELECT ` + adColumns + `
		FROM ads
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY created_at DESC`

	ads := []Ad{}
	if err := r.db.SelectContext(ctx, &ads, query, args...); err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}

	return ads, nil
}
