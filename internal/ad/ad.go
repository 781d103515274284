// AngelaMos | 2026
// ad.go

package ad

import (
	"database/sql"
	"time"

	"github.com/marketflow/agency-api/internal/analytics"
)

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

const (
	TypeAwareness      = "awareness"
	TypeLeadGeneration = "lead_generation"
)

// Ad is a paid campaign line. Metric columns are nullable and read as zero
// by the reductions.
type Ad struct {
	ID        string    `db:"id"         json:"id"`
	BriefID   string    `db:"brief_id"   json:"brief_id"`
	ClientID  string    `db:"client_id"  json:"client_id"`
	Type      string    `db:"type"       json:"type"`
	Platform  string    `db:"platform"   json:"platform"`
	Budget    *float64  `db:"budget"     json:"budget"`
	Spent     *float64  `db:"spent"      json:"spent"`
	Leads     *int64    `db:"leads"      json:"leads"`
	Reach     *int64    `db:"reach"      json:"reach"`
	CTR       *float64  `db:"ctr"        json:"ctr"`
	Status    string    `db:"status"     json:"status"`
	StartDate string    `db:"start_date" json:"start_date"`
	EndDate   *string   `db:"end_date"   json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (a *Ad) metrics() analytics.AdMetrics {
	m := analytics.AdMetrics{ID: a.ID, ClientID: a.ClientID, Status: a.Status}
	if a.Budget != nil {
		m.Budget = sql.NullFloat64{Float64: *a.Budget, Valid: true}
	}
	if a.Spent != nil {
		m.Spent = sql.NullFloat64{Float64: *a.Spent, Valid: true}
	}
	if a.Leads != nil {
		m.Leads = sql.NullInt64{Int64: *a.Leads, Valid: true}
	}
	if a.Reach != nil {
		m.Reach = sql.NullInt64{Int64: *a.Reach, Valid: true}
	}
	if a.CTR != nil {
		m.CTR = sql.NullFloat64{Float64: *a.CTR, Valid: true}
	}
	return m
}

// View is an ad with its spend figures worked out.
type View struct {
	Ad
	Utilization int  `json:"utilization"`
	CostPerLead *int `json:"cost_per_lead"`
	OverBudget  bool `json:"over_threshold"`
}

func NewView(a Ad) View {
	m := a.metrics()
	v := View{
		Ad:          a,
		Utilization: analytics.Utilization(m.Spent.Float64, m.Budget.Float64),
		OverBudget:  analytics.OverThreshold(m),
	}
	if cpl, ok := analytics.CostPerLead(m.Spent.Float64, m.Leads.Int64); ok {
		v.CostPerLead = &cpl
	}
	return v
}

func NewViews(ads []Ad) []View {
	out := make([]View, len(ads))
	for i := range ads {
		out[i] = NewView(ads[i])
	}
	return out
}

type CreateRequest struct {
	BriefID   string   `json:"brief_id"   validate:"required,uuid"`
	ClientID  string   `json:"client_id"  validate:"required,uuid"`
	Type      string   `json:"type"       validate:"required,oneof=awareness lead_generation"`
	Platform  string   `json:"platform"   validate:"required,oneof=facebook instagram linkedin twitter google_ads youtube"`
	Budget    *float64 `json:"budget"     validate:"omitempty,gte=0"`
	Spent     *float64 `json:"spent"      validate:"omitempty,gte=0"`
	Leads     *int64   `json:"leads"      validate:"omitempty,gte=0"`
	Reach     *int64   `json:"reach"      validate:"omitempty,gte=0"`
	CTR       *float64 `json:"ctr"        validate:"omitempty,gte=0,lte=100"`
	StartDate string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string  `json:"end_date"   validate:"omitempty,datetime=2006-01-02"`
}

type UpdateRequest struct {
	Budget  *float64 `json:"budget"   validate:"omitempty,gte=0"`
	Spent   *float64 `json:"spent"    validate:"omitempty,gte=0"`
	Leads   *int64   `json:"leads"    validate:"omitempty,gte=0"`
	Reach   *int64   `json:"reach"    validate:"omitempty,gte=0"`
	CTR     *float64 `json:"ctr"      validate:"omitempty,gte=0,lte=100"`
	EndDate *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status  *string  `json:"status"   validate:"omitempty,oneof=active paused completed"`
}

func (r UpdateRequest) apply(a *Ad) {
	if r.Budget != nil {
		a.Budget = r.Budget
	}
	if r.Spent != nil {
		a.Spent = r.Spent
	}
	if r.Leads != nil {
		a.Leads = r.Leads
	}
	if r.Reach != nil {
		a.Reach = r.Reach
	}
	if r.CTR != nil {
		a.CTR = r.CTR
	}
	if r.EndDate != nil {
		a.EndDate = r.EndDate
	}
}

// statusChange reports the status the request moves a to, if any.
func (r UpdateRequest) statusChange(a *Ad) (string, bool) {
	if r.Status == nil || *r.Status == a.Status {
		return "", false
	}
	return *r.Status, true
}

type ListParams struct {
	ClientID string `json:"client_id"`
	BriefID  string `json:"brief_id"`
	Status   string `json:"status"`
}
