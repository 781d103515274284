// AngelaMos | 2026
// client.go

package client

import (
	"time"
)

// Client is an agency customer. Clients are deactivated, never deleted.
type Client struct {
	ID            string    `db:"id"             json:"id"`
	Name          string    `db:"name"           json:"name"`
	Industry      string    `db:"industry"       json:"industry"`
	LogoURL       *string   `db:"logo_url"       json:"logo_url,omitempty"`
	MonthlyBudget float64   `db:"monthly_budget" json:"monthly_budget"`
	IsActive      bool      `db:"is_active"      json:"is_active"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

type CreateRequest struct {
	Name          string  `json:"name"           validate:"required,min=1,max=200"`
	Industry      string  `json:"industry"       validate:"required,min=1,max=100"`
	LogoURL       *string `json:"logo_url"       validate:"omitempty,url,max=2048"`
	MonthlyBudget float64 `json:"monthly_budget" validate:"gte=0"`
}

type UpdateRequest struct {
	Name          *string  `json:"name"           validate:"omitempty,min=1,max=200"`
	Industry      *string  `json:"industry"       validate:"omitempty,min=1,max=100"`
	LogoURL       *string  `json:"logo_url"       validate:"omitempty,url,max=2048"`
	MonthlyBudget *float64 `json:"monthly_budget" validate:"omitempty,gte=0"`
}

func (r UpdateRequest) apply(c *Client) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Industry != nil {
		c.Industry = *r.Industry
	}
	if r.LogoURL != nil {
		c.LogoURL = r.LogoURL
	}
	if r.MonthlyBudget != nil {
		c.MonthlyBudget = *r.MonthlyBudget
	}
}

type ListParams struct {
	Search string `json:"search"`
	Active *bool  `json:"active"`
}
