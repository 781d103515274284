// AngelaMos | 2026
// dto.go

package profile

import (
	"time"

	"github.com/marketflow/agency-api/internal/workflow"
)

type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"       validate:"omitempty,min=2,max=100"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=2048"`
}

type UpdateRoleRequest struct {
	Role workflow.Role `json:"role" validate:"required,oneof=admin dm_manager copywriter copy_qc designer design_qc client_coordinator dm_team_lead"`
}

type ProfileResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Role      *workflow.Role `json:"role"`
	RoleLabel string         `json:"role_label"`
	AvatarURL *string        `json:"avatar_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ListParams struct {
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Search   string        `json:"search"`
	Role     workflow.Role `json:"role"`
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToResponse(p *Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		RoleLabel: p.Role.Label(),
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Role != workflow.RoleNone {
		role := p.Role
		resp.Role = &role
	}
	return resp
}

func ToResponseList(profiles []Profile) []ProfileResponse {
	out := make([]ProfileResponse, len(profiles))
	for i := range profiles {
		out[i] = ToResponse(&profiles[i])
	}
	return out
}
