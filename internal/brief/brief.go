// AngelaMos | 2026
// brief.go

package brief

import (
	"time"

	"github.com/lib/pq"

	"github.com/marketflow/agency-api/internal/task"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Brief struct {
	ID             string          `db:"id"              json:"id"`
	ClientID       string          `db:"client_id"       json:"client_id"`
	Title          string          `db:"title"           json:"title"`
	Objective      string          `db:"objective"       json:"objective"`
	TargetAudience *string         `db:"target_audience" json:"target_audience,omitempty"`
	Platforms      pq.StringArray  `db:"platforms"       json:"platforms"`
	Budget         *float64        `db:"budget"          json:"budget"`
	Priority       string          `db:"priority"        json:"priority"`
	Deadline       string          `db:"deadline"        json:"deadline"`
	Status         workflow.Status `db:"status"          json:"status"`
	CreatedBy      string          `db:"created_by"      json:"created_by"`
	CreatedAt      time.Time       `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"      json:"updated_at"`
}

// Summary is a brief as listed, with the status rolled up from its tasks.
type Summary struct {
	Brief
	DerivedStatus workflow.Status `json:"derived_status"`
	TaskCount     int             `json:"task_count"`
}

// Detail is a single brief with its tasks and the moves open to the caller.
type Detail struct {
	Brief
	DerivedStatus        workflow.Status   `json:"derived_status"`
	AvailableTransitions []workflow.Status `json:"available_transitions"`
	Tasks                []task.Task       `json:"tasks"`
}

type CreateRequest struct {
	ClientID       string             `json:"client_id"       validate:"required,uuid"`
	Title          string             `json:"title"           validate:"required,min=1,max=200"`
	Objective      string             `json:"objective"       validate:"required,min=1,max=5000"`
	TargetAudience *string            `json:"target_audience" validate:"omitempty,max=2000"`
	Platforms      []string           `json:"platforms"       validate:"omitempty,unique,dive,oneof=facebook instagram linkedin twitter google_ads youtube"`
	Budget         *float64           `json:"budget"          validate:"omitempty,gte=0"`
	Priority       string             `json:"priority"        validate:"omitempty,oneof=low normal high critical"`
	Deadline       string             `json:"deadline"        validate:"required,datetime=2006-01-02"`
	Tasks          []task.InitialTask `json:"tasks"           validate:"omitempty,max=20,dive"`
}

type UpdateRequest struct {
	Title          *string  `json:"title"           validate:"omitempty,min=1,max=200"`
	Objective      *string  `json:"objective"       validate:"omitempty,min=1,max=5000"`
	TargetAudience *string  `json:"target_audience" validate:"omitempty,max=2000"`
	Platforms      []string `json:"platforms"       validate:"omitempty,unique,dive,oneof=facebook instagram linkedin twitter google_ads youtube"`
	Budget         *float64 `json:"budget"          validate:"omitempty,gte=0"`
	Priority       *string  `json:"priority"        validate:"omitempty,oneof=low normal high critical"`
	Deadline       *string  `json:"deadline"        validate:"omitempty,datetime=2006-01-02"`
}

func (r UpdateRequest) apply(b *Brief) {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Objective != nil {
		b.Objective = *r.Objective
	}
	if r.TargetAudience != nil {
		b.TargetAudience = r.TargetAudience
	}
	if r.Platforms != nil {
		b.Platforms = pq.StringArray(r.Platforms)
	}
	if r.Budget != nil {
		b.Budget = r.Budget
	}
	if r.Priority != nil {
		b.Priority = *r.Priority
	}
	if r.Deadline != nil {
		b.Deadline = *r.Deadline
	}
}

type TransitionRequest struct {
	Status workflow.Status `json:"status" validate:"required,oneof=draft pending in_progress review approved rejected client_review published"`
}

// ListParams filters briefs. DeadlineFrom and DeadlineTo bound the
// calendar window, both inclusive.
type ListParams struct {
	ClientID     string          `json:"client_id"`
	Status       workflow.Status `json:"status"`
	DeadlineFrom string          `json:"deadline_from"`
	DeadlineTo   string          `json:"deadline_to"`
}
