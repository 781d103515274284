// AngelaMos | 2026
// repository_test.go

package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketflow/agency-api/internal/workflow"
)

func TestListQueryOrdersNewestFirstWithBriefAndClient(t *testing.T) {
	query, args := listQuery(ListParams{})
	assert.Contains(t, query, "ORDER BY t.created_at DESC")
	assert.Contains(t, query, "b.title AS brief_title")
	assert.Contains(t, query, "c.name AS client_name")
	assert.Contains(t, query, "WHERE TRUE\n")
	assert.Empty(t, args)
}

func TestListQueryFilters(t *testing.T) {
	query, args := listQuery(ListParams{
		BriefID: "b1",
		Status:  workflow.StatusReview,
		Type:    workflow.TaskCopy,
	})
	assert.Contains(t, query, "t.brief_id = $1::uuid")
	assert.Contains(t, query, "t.status = $2::task_status")
	assert.Contains(t, query, "t.type = $3::task_type")
	assert.NotContains(t, query, "assignee_id = $")
	assert.Equal(t, []any{"b1", "review", "copy"}, args)
}
