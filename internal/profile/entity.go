// AngelaMos | 2026
// entity.go

package profile

import (
	"time"

	"github.com/marketflow/agency-api/internal/workflow"
)

// Profile is a team member. Role stays empty until an admin assigns one.
type Profile struct {
	ID           string        `db:"id"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	Name         string        `db:"name"`
	Role         workflow.Role `db:"role"`
	AvatarURL    *string       `db:"avatar_url"`
	TokenVersion int           `db:"token_version"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
	DeletedAt    *time.Time    `db:"deleted_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == workflow.RoleAdmin
}
