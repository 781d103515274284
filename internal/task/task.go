// AngelaMos | 2026
// task.go

package task

import (
	"time"

	"github.com/marketflow/agency-api/internal/workflow"
)

const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// DateLayout is the wire and storage format for deadlines.
const DateLayout = "2006-01-02"

type Task struct {
	ID          string            `db:"id"          json:"id"`
	BriefID     string            `db:"brief_id"    json:"brief_id"`
	AssigneeID  *string           `db:"assignee_id" json:"assignee_id"`
	Type        workflow.TaskType `db:"type"        json:"type"`
	Description *string           `db:"description" json:"description,omitempty"`
	Status      workflow.Status   `db:"status"      json:"status"`
	Priority    string            `db:"priority"    json:"priority"`
	Deadline    string            `db:"deadline"    json:"deadline"`
	CreatedAt   time.Time         `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"  json:"updated_at"`

	// Set by List only.
	BriefTitle *string `db:"brief_title" json:"brief_title,omitempty"`
	ClientName *string `db:"client_name" json:"client_name,omitempty"`
}

type Comment struct {
	ID         string    `db:"id"          json:"id"`
	TaskID     string    `db:"task_id"     json:"task_id"`
	UserID     string    `db:"user_id"     json:"user_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Content    string    `db:"content"     json:"content"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}

// Checklist is the QC review of a single task.
type Checklist struct {
	ID                 string     `db:"id"                  json:"id"`
	TaskID             string     `db:"task_id"             json:"task_id"`
	ReviewerID         string     `db:"reviewer_id"         json:"reviewer_id"`
	ClientPriorityMet  bool       `db:"client_priority_met" json:"client_priority_met"`
	BrandTone          bool       `db:"brand_tone"          json:"brand_tone"`
	PlatformGuidelines bool       `db:"platform_guidelines" json:"platform_guidelines"`
	GrammarClarity     bool       `db:"grammar_clarity"     json:"grammar_clarity"`
	CTAAlignment       bool       `db:"cta_alignment"       json:"cta_alignment"`
	Comments           *string    `db:"comments"            json:"comments,omitempty"`
	IsApproved         *bool      `db:"is_approved"         json:"is_approved"`
	ReviewedAt         *time.Time `db:"reviewed_at"         json:"reviewed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at"          json:"created_at"`
}

// Complete reports whether every checklist item is ticked.
func (c *Checklist) Complete() bool {
	return c.ClientPriorityMet && c.BrandTone && c.PlatformGuidelines &&
		c.GrammarClarity && c.CTAAlignment
}

type CreateRequest struct {
	BriefID     string            `json:"brief_id"    validate:"required,uuid"`
	Type        workflow.TaskType `json:"type"        validate:"required,oneof=copy design copy_qc design_qc client_review publishing"`
	AssigneeID  *string           `json:"assignee_id" validate:"omitempty,uuid"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Priority    string            `json:"priority"    validate:"omitempty,oneof=low normal high critical"`
	Deadline    string            `json:"deadline"    validate:"required,datetime=2006-01-02"`
}

// InitialTask is a task created together with its brief. Empty fields
// inherit from the brief.
type InitialTask struct {
	Type        workflow.TaskType `json:"type"        validate:"required,oneof=copy design copy_qc design_qc client_review publishing"`
	AssigneeID  *string           `json:"assignee_id" validate:"omitempty,uuid"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Priority    string            `json:"priority"    validate:"omitempty,oneof=low normal high critical"`
	Deadline    string            `json:"deadline"    validate:"omitempty,datetime=2006-01-02"`
}

type UpdateRequest struct {
	AssigneeID  *string `json:"assignee_id" validate:"omitempty,uuid"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Priority    *string `json:"priority"    validate:"omitempty,oneof=low normal high critical"`
	Deadline    *string `json:"deadline"    validate:"omitempty,datetime=2006-01-02"`
}

func (r UpdateRequest) apply(t *Task) {
	if r.AssigneeID != nil {
		t.AssigneeID = r.AssigneeID
	}
	if r.Description != nil {
		t.Description = r.Description
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.Deadline != nil {
		t.Deadline = *r.Deadline
	}
}

type TransitionRequest struct {
	Status workflow.Status `json:"status" validate:"required,oneof=draft pending in_progress review approved rejected client_review published"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

type ChecklistRequest struct {
	ClientPriorityMet  bool    `json:"client_priority_met"`
	BrandTone          bool    `json:"brand_tone"`
	PlatformGuidelines bool    `json:"platform_guidelines"`
	GrammarClarity     bool    `json:"grammar_clarity"`
	CTAAlignment       bool    `json:"cta_alignment"`
	Comments           *string `json:"comments"    validate:"omitempty,max=5000"`
	IsApproved         *bool   `json:"is_approved"`
}

type ListParams struct {
	BriefID    string            `json:"brief_id"`
	AssigneeID string            `json:"assignee_id"`
	Status     workflow.Status   `json:"status"`
	Type       workflow.TaskType `json:"type"`
}

// View is a task with the moves open to the caller.
type View struct {
	Task
	AvailableTransitions []workflow.Status `json:"available_transitions"`
}
