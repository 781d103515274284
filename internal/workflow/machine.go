// AngelaMos | 2026
// machine.go

package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("role not permitted for transition")
)

// transitions is the complete set of allowed status changes.
var transitions = map[Status][]Status{
	StatusDraft:        {StatusPending},
	StatusPending:      {StatusInProgress},
	StatusInProgress:   {StatusReview},
	StatusReview:       {StatusApproved, StatusRejected},
	StatusApproved:     {StatusClientReview},
	StatusClientReview: {StatusPublished},
	StatusRejected:     {StatusInProgress},
}

var workerRoles = roleSet(
	RoleAdmin,
	RoleDMManager,
	RoleDMTeamLead,
	RoleCopywriter,
	RoleDesigner,
)

// stageOwners lists the roles allowed to move a subject into a status.
var stageOwners = map[Status]map[Role]struct{}{
	StatusPending:      roleSet(RoleAdmin, RoleDMManager, RoleDMTeamLead),
	StatusInProgress:   workerRoles,
	StatusReview:       workerRoles,
	StatusApproved:     roleSet(RoleAdmin, RoleCopyQC, RoleDesignQC),
	StatusRejected:     roleSet(RoleAdmin, RoleCopyQC, RoleDesignQC),
	StatusClientReview: roleSet(RoleAdmin, RoleClientCoordinator),
	StatusPublished:    roleSet(RoleAdmin, RoleClientCoordinator),
}

var briefManagers = roleSet(RoleAdmin, RoleDMManager)

// taskCoverage lists the task types each role may act on. Roles absent
// from the map cover every type.
var taskCoverage = map[Role]map[TaskType]struct{}{
	RoleCopywriter: typeSet(TaskCopy),
	RoleDesigner:   typeSet(TaskDesign),
	RoleCopyQC:     typeSet(TaskCopy, TaskCopyQC),
	RoleDesignQC:   typeSet(TaskDesign, TaskDesignQC),
	RoleDMTeamLead: typeSet(TaskPublishing, TaskClientReview),
}

// Subject is the thing whose status changes. A nil TaskType marks a brief.
type Subject struct {
	TaskType *TaskType
}

func BriefSubject() Subject {
	return Subject{}
}

func TaskSubject(t TaskType) Subject {
	return Subject{TaskType: &t}
}

func (s Subject) IsBrief() bool {
	return s.TaskType == nil
}

func (s Subject) String() string {
	if s.IsBrief() {
		return "brief"
	}
	return "task"
}

type Actor struct {
	UserID string
	Role   Role
}

type Transition struct {
	Subject Subject
	From    Status
	To      Status
	Role    Role
}

// Allowed reports whether the status pair is in the transition table,
// regardless of who asks.
func Allowed(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func Next(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Check validates a transition. The status pair is checked before the
// caller's permissions, so an impossible move is always reported as
// ErrInvalidTransition.
func Check(t Transition) error {
	if !t.From.Valid() || !t.To.Valid() || !Allowed(t.From, t.To) {
		return fmt.Errorf(
			"%s %s -> %s: %w",
			t.Subject, t.From, t.To, ErrInvalidTransition,
		)
	}

	if !CanMoveTo(t.Role, t.Subject, t.To) {
		return fmt.Errorf(
			"%s %s -> %s as %q: %w",
			t.Subject, t.From, t.To, t.Role, ErrForbidden,
		)
	}

	return nil
}

// CanMoveTo reports whether role may move subject into status to.
func CanMoveTo(role Role, subject Subject, to Status) bool {
	if !role.Valid() {
		return false
	}

	owners, ok := stageOwners[to]
	if !ok {
		return false
	}
	if _, ok := owners[role]; !ok {
		return false
	}

	if subject.IsBrief() {
		if isWorkerStage(to) {
			_, ok := briefManagers[role]
			return ok
		}
		return true
	}

	return Covers(role, *subject.TaskType)
}

func Covers(role Role, t TaskType) bool {
	covered, restricted := taskCoverage[role]
	if !restricted {
		return role.Valid()
	}
	_, ok := covered[t]
	return ok
}

// Available lists the statuses role may move subject into from the
// current status.
func Available(role Role, subject Subject, from Status) []Status {
	out := []Status{}
	for _, to := range transitions[from] {
		if CanMoveTo(role, subject, to) {
			out = append(out, to)
		}
	}
	return out
}

func InitialStatus(subject Subject) Status {
	if subject.IsBrief() {
		return StatusDraft
	}
	return StatusPending
}

func isWorkerStage(s Status) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusReview
}

func roleSet(rs ...Role) map[Role]struct{} {
	set := make(map[Role]struct{}, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

func typeSet(ts ...TaskType) map[TaskType]struct{} {
	set := make(map[TaskType]struct{}, len(ts))
	for _, t := range ts {
		set[t] = struct{}{}
	}
	return set
}
