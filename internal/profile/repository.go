// AngelaMos | 2026
// repository.go

package profile

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
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	UpdateRole(ctx context.Context, id string, role workflow.Role) (*Profile, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]Profile, int, error)
}

// Role is nullable in the table; it is read back as the empty role.
const profileColumns = `
	id, email, password_hash, name, COALESCE(role::text, '') AS role,
	avatar_url, token_version, created_at, updated_at, deleted_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (id, email, password_hash, name, role, avatar_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::app_role, $6)
		RETURNING created_at, updated_at, token_version`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.Name,
		string(p.Role),
		p.AvatarURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt, &p.TokenVersion)
	if err != nil {
		return fmt.Errorf("create profile: %w", core.MapStoreError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	return r.getOne(ctx, "id", id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Profile, error) {
	return r.getOne(ctx, "email", email)
}

func (r *repository) getOne(
	ctx context.Context,
	column, value string,
) (*Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE ` + column + ` = $1 AND deleted_at IS NULL`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET name = $2, avatar_url = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query, p.ID, p.Name, p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", core.MapStoreError(err))
	}

	return nil
}

// UpdateRole also bumps token_version so tokens carrying the old role stop
// verifying.
func (r *repository) UpdateRole(
	ctx context.Context,
	id string,
	role workflow.Role,
) (*Profile, error) {
	query := `
		UPDATE profiles
		SET role = NULLIF($2, '')::app_role,
		    token_version = token_version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + profileColumns

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id, string(role))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", core.MapStoreError(err))
	}

	return &p, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return r.execOne(ctx, "update password", `
		UPDATE profiles
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, passwordHash,
	)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	return r.execOne(ctx, "increment token version", `
		UPDATE profiles
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete profile", `
		UPDATE profiles
		SET deleted_at = NOW(), token_version = token_version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Profile, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != workflow.RoleNone {
		conditions = append(conditions, fmt.Sprintf("role::text = $%d", argIdx))
		args = append(args, string(params.Role))
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM profiles WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM profiles
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d`,
		profileColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, params.Offset())

	profiles := []Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	return profiles, total, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
