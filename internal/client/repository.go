// AngelaMos | 2026
// repository.go

package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/marketflow/agency-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id string) (*Client, error)
	Update(ctx context.Context, c *Client) error
	Deactivate(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, params ListParams) ([]Client, error)
}

const clientColumns = `
	id, name, industry, logo_url, monthly_budget::float8 AS monthly_budget,
	is_active, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO clients (id, name, industry, logo_url, monthly_budget)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_active, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.Name,
		c.Industry,
		c.LogoURL,
		c.MonthlyBudget,
	).Scan(&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	var c Client
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get client: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *Client) error {
	query := `
		UPDATE clients
		SET name = $2, industry = $3, logo_url = $4, monthly_budget = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.Name,
		c.Industry,
		c.LogoURL,
		c.MonthlyBudget,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update client: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update client: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id string) (*Client, error) {
	query := `
		UPDATE clients
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + clientColumns

	var c Client
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deactivate client: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("deactivate client: %w", err)
	}

	return &c, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Client, error) {
	conditions := []string{"TRUE"}
	var args []any

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR industry ILIKE $%d)", len(args), len(args)))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}

	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY name ASC`

	clients := []Client{}
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	return clients, nil
}
