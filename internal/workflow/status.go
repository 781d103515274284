// AngelaMos | 2026
// status.go

// Package workflow holds the status state machine shared by briefs and
// tasks, and the role rules that gate each transition.
package workflow

type Status string

const (
	StatusDraft        Status = "draft"
	StatusPending      Status = "pending"
	StatusInProgress   Status = "in_progress"
	StatusReview       Status = "review"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusClientReview Status = "client_review"
	StatusPublished    Status = "published"
)

var statuses = []Status{
	StatusDraft,
	StatusPending,
	StatusInProgress,
	StatusReview,
	StatusApproved,
	StatusRejected,
	StatusClientReview,
	StatusPublished,
}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusPublished
}

type TaskType string

const (
	TaskCopy         TaskType = "copy"
	TaskDesign       TaskType = "design"
	TaskCopyQC       TaskType = "copy_qc"
	TaskDesignQC     TaskType = "design_qc"
	TaskClientReview TaskType = "client_review"
	TaskPublishing   TaskType = "publishing"
)

var taskTypes = []TaskType{
	TaskCopy,
	TaskDesign,
	TaskCopyQC,
	TaskDesignQC,
	TaskClientReview,
	TaskPublishing,
}

func TaskTypes() []TaskType {
	out := make([]TaskType, len(taskTypes))
	copy(out, taskTypes)
	return out
}

func (t TaskType) Valid() bool {
	for _, known := range taskTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Role is one of the fixed permission classes. The zero value means the
// user has not been assigned a role yet.
type Role string

const (
	RoleNone              Role = ""
	RoleAdmin             Role = "admin"
	RoleDMManager         Role = "dm_manager"
	RoleCopywriter        Role = "copywriter"
	RoleCopyQC            Role = "copy_qc"
	RoleDesigner          Role = "designer"
	RoleDesignQC          Role = "design_qc"
	RoleClientCoordinator Role = "client_coordinator"
	RoleDMTeamLead        Role = "dm_team_lead"
)

var roles = []Role{
	RoleAdmin,
	RoleDMManager,
	RoleCopywriter,
	RoleCopyQC,
	RoleDesigner,
	RoleDesignQC,
	RoleClientCoordinator,
	RoleDMTeamLead,
}

func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

var roleLabels = map[Role]string{
	RoleAdmin:             "Admin",
	RoleDMManager:         "DM Manager",
	RoleCopywriter:        "Copywriter",
	RoleCopyQC:            "Copy QC",
	RoleDesigner:          "Designer",
	RoleDesignQC:          "Design QC",
	RoleClientCoordinator: "Client Coordinator",
	RoleDMTeamLead:        "DM Team Lead",
}

func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return "No Role"
}
