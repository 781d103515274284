// AngelaMos | 2026
// machine_test.go

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRejectsPairsOutsideTable(t *testing.T) {
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			if Allowed(from, to) {
				continue
			}
			err := Check(Transition{
				Subject: TaskSubject(TaskCopy),
				From:    from,
				To:      to,
				Role:    RoleAdmin,
			})
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestCheckSelfTransitionIsInvalid(t *testing.T) {
	for _, s := range Statuses() {
		err := Check(Transition{
			Subject: BriefSubject(),
			From:    s,
			To:      s,
			Role:    RoleAdmin,
		})
		assert.ErrorIs(t, err, ErrInvalidTransition, string(s))
	}
}

func TestCheckDraftToPublishedIsInvalidEvenForAdmin(t *testing.T) {
	err := Check(Transition{
		Subject: TaskSubject(TaskDesign),
		From:    StatusDraft,
		To:      StatusPublished,
		Role:    RoleAdmin,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestCheckInvalidPairReportedBeforeRole(t *testing.T) {
	err := Check(Transition{
		Subject: TaskSubject(TaskCopy),
		From:    StatusPending,
		To:      StatusPublished,
		Role:    RoleNone,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckUnknownStatus(t *testing.T) {
	err := Check(Transition{
		Subject: BriefSubject(),
		From:    Status("archived"),
		To:      StatusPending,
		Role:    RoleAdmin,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckQCCoverage(t *testing.T) {
	approveCopy := Transition{
		Subject: TaskSubject(TaskCopy),
		From:    StatusReview,
		To:      StatusApproved,
		Role:    RoleCopyQC,
	}
	assert.NoError(t, Check(approveCopy))

	approveDesign := approveCopy
	approveDesign.Subject = TaskSubject(TaskDesign)
	assert.ErrorIs(t, Check(approveDesign), ErrForbidden)

	approveDesign.Role = RoleDesignQC
	assert.NoError(t, Check(approveDesign))
}

func TestCheckEmptyRoleNeverPermitted(t *testing.T) {
	for from, nexts := range transitions {
		for _, to := range nexts {
			for _, subject := range []Subject{BriefSubject(), TaskSubject(TaskCopy)} {
				err := Check(Transition{
					Subject: subject,
					From:    from,
					To:      to,
					Role:    RoleNone,
				})
				assert.ErrorIs(t, err, ErrForbidden, "%s -> %s", from, to)
			}
		}
	}
}

func TestCheckAdminMayTakeEveryAllowedStep(t *testing.T) {
	for from, nexts := range transitions {
		for _, to := range nexts {
			for _, tt := range TaskTypes() {
				assert.NoError(t, Check(Transition{
					Subject: TaskSubject(tt),
					From:    from,
					To:      to,
					Role:    RoleAdmin,
				}))
			}
			assert.NoError(t, Check(Transition{
				Subject: BriefSubject(),
				From:    from,
				To:      to,
				Role:    RoleAdmin,
			}))
		}
	}
}

func TestCanMoveTo(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		subject Subject
		to      Status
		want    bool
	}{
		{"copywriter starts copy", RoleCopywriter, TaskSubject(TaskCopy), StatusInProgress, true},
		{"copywriter cannot start design", RoleCopywriter, TaskSubject(TaskDesign), StatusInProgress, false},
		{"designer submits design", RoleDesigner, TaskSubject(TaskDesign), StatusReview, true},
		{"designer cannot approve", RoleDesigner, TaskSubject(TaskDesign), StatusApproved, false},
		{"design qc rejects design qc task", RoleDesignQC, TaskSubject(TaskDesignQC), StatusRejected, true},
		{"copy qc cannot reject design", RoleCopyQC, TaskSubject(TaskDesign), StatusRejected, false},
		{"team lead queues publishing", RoleDMTeamLead, TaskSubject(TaskPublishing), StatusPending, true},
		{"team lead cannot queue copy", RoleDMTeamLead, TaskSubject(TaskCopy), StatusPending, false},
		{"coordinator publishes any task", RoleClientCoordinator, TaskSubject(TaskDesign), StatusPublished, true},
		{"coordinator cannot start work", RoleClientCoordinator, TaskSubject(TaskCopy), StatusInProgress, false},
		{"manager submits brief", RoleDMManager, BriefSubject(), StatusPending, true},
		{"copywriter cannot move brief", RoleCopywriter, BriefSubject(), StatusInProgress, false},
		{"team lead cannot move brief to pending", RoleDMTeamLead, BriefSubject(), StatusPending, false},
		{"copy qc approves brief", RoleCopyQC, BriefSubject(), StatusApproved, true},
		{"coordinator publishes brief", RoleClientCoordinator, BriefSubject(), StatusPublished, true},
		{"nobody moves to draft", RoleAdmin, BriefSubject(), StatusDraft, false},
		{"unknown role", Role("intern"), TaskSubject(TaskCopy), StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMoveTo(tt.role, tt.subject, tt.to))
		})
	}
}

func TestAvailable(t *testing.T) {
	assert.ElementsMatch(
		t,
		[]Status{StatusApproved, StatusRejected},
		Available(RoleCopyQC, TaskSubject(TaskCopy), StatusReview),
	)
	assert.Empty(t, Available(RoleCopywriter, TaskSubject(TaskCopy), StatusReview))
	assert.Empty(t, Available(RoleAdmin, TaskSubject(TaskCopy), StatusPublished))
	assert.Equal(
		t,
		[]Status{StatusInProgress},
		Available(RoleDesigner, TaskSubject(TaskDesign), StatusRejected),
	)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusDraft, InitialStatus(BriefSubject()))
	assert.Equal(t, StatusPending, InitialStatus(TaskSubject(TaskCopy)))
}

func TestNextReturnsCopy(t *testing.T) {
	next := Next(StatusReview)
	require.Len(t, next, 2)
	next[0] = StatusDraft
	assert.Equal(t, StatusApproved, Next(StatusReview)[0])
}
