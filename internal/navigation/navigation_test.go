// AngelaMos | 2026
// navigation_test.go

package navigation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketflow/agency-api/internal/workflow"
)

func keys(ds []Destination) []Key {
	out := make([]Key, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Key)
	}
	return out
}

func TestVisible(t *testing.T) {
	p := Policy{}

	tests := []struct {
		role workflow.Role
		want []Key
	}{
		{workflow.RoleAdmin, []Key{
			Dashboard, Calendar, Briefs, Tasks, QCReview, ClientReview,
			AdsManager, Campaigns, Analytics, Performance, Clients, Team, Settings,
		}},
		{workflow.RoleCopywriter, []Key{Dashboard, Briefs, Tasks}},
		{workflow.RoleDMTeamLead, []Key{Dashboard, AdsManager, Campaigns}},
		{workflow.RoleClientCoordinator, []Key{Dashboard, Tasks, ClientReview, Clients}},
		{workflow.RoleDesignQC, []Key{Dashboard, Briefs, Tasks, QCReview}},
		{workflow.RoleDMManager, []Key{
			Dashboard, Calendar, Briefs, Tasks, AdsManager, Campaigns,
			Analytics, Clients, Settings,
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, keys(p.Visible(tt.role)))
		})
	}
}

func TestVisibleIsSubsetInTableOrder(t *testing.T) {
	all := keys(Destinations())
	for _, role := range workflow.Roles() {
		visible := keys(Policy{}.Visible(role))
		last := -1
		for _, k := range visible {
			idx := indexOf(all, k)
			require.GreaterOrEqual(t, idx, 0)
			assert.Greater(t, idx, last, "role %s out of order", role)
			last = idx
		}
		assert.Contains(t, visible, Dashboard)
	}
}

func indexOf(ks []Key, k Key) int {
	for i, v := range ks {
		if v == k {
			return i
		}
	}
	return -1
}

func TestMissingRolePolicy(t *testing.T) {
	assert.Empty(t, Policy{}.Visible(workflow.RoleNone))
	assert.False(t, Policy{}.CanAccess(workflow.RoleNone, Dashboard))

	open := Policy{AllowAllWithoutRole: true}
	assert.Len(t, open.Visible(workflow.RoleNone), len(Destinations()))
	assert.True(t, open.CanAccess(workflow.RoleNone, Team))
}

func TestCanAccess(t *testing.T) {
	p := Policy{}
	assert.True(t, p.CanAccess(workflow.RoleDMTeamLead, AdsManager))
	assert.False(t, p.CanAccess(workflow.RoleCopywriter, AdsManager))
	assert.False(t, p.CanAccess(workflow.RoleAdmin, Key("unknown")))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authenticated bool
		want          Resolution
	}{
		{"landing is public", "/", false, Resolution{Outcome: OutcomePage, Page: "index"}},
		{"auth page is public", "/auth", false, Resolution{Outcome: OutcomePage, Page: "auth"}},
		{"signed out redirected", "/dashboard", false, Resolution{Outcome: OutcomeRedirect, Location: "/"}},
		{"briefs alias", "/briefs", true, Resolution{Outcome: OutcomePage, Page: "tasks"}},
		{"qc alias", "/qc-review", true, Resolution{Outcome: OutcomePage, Page: "tasks"}},
		{"campaigns alias", "/campaigns", true, Resolution{Outcome: OutcomePage, Page: "ads"}},
		{"performance alias", "/performance", true, Resolution{Outcome: OutcomePage, Page: "analytics"}},
		{"team alias", "/team/", true, Resolution{Outcome: OutcomePage, Page: "clients"}},
		{"query ignored", "/calendar?month=3", true, Resolution{Outcome: OutcomePage, Page: "calendar"}},
		{"unknown path", "/nowhere", true, Resolution{Outcome: OutcomeNotFound}},
		{"unknown path signed out", "/nowhere", false, Resolution{Outcome: OutcomeNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path, tt.authenticated))
		})
	}
}

type staticIdentity struct {
	role          workflow.Role
	authenticated bool
}

func (s staticIdentity) Role(*http.Request) workflow.Role { return s.role }
func (s staticIdentity) Authenticated(*http.Request) bool  { return s.authenticated }

func passThrough(next http.Handler) http.Handler { return next }

func TestHandlerMenu(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(Policy{}, staticIdentity{workflow.RoleCopywriter, true}).
		RegisterRoutes(r, passThrough, passThrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/navigation/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data MenuResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Copywriter", body.Data.RoleLabel)
	assert.Equal(t, []Key{Dashboard, Briefs, Tasks}, keys(body.Data.Destinations))
}

func TestHandlerResolve(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(Policy{}, staticIdentity{}).RegisterRoutes(r, passThrough, passThrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/navigation/resolve?path=/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, OutcomeRedirect, body.Data.Outcome)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/navigation/resolve", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
