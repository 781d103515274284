// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketflow/agency-api/internal/config"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/navigation"
	"github.com/marketflow/agency-api/internal/workflow"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	context.Context,
	string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func authed(role workflow.Role, h http.Handler) http.Handler {
	return Authenticator(stubVerifier{claims: &AccessTokenClaims{
		UserID: "user-1",
		Role:   role,
	}})(h)
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bearer() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	return req
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	rec := do(authed(workflow.RoleAdmin, ok), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorMapsTokenErrors(t *testing.T) {
	h := Authenticator(stubVerifier{err: core.ErrTokenRevoked})(ok)
	rec := do(h, bearer())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_REVOKED")
}

func TestAuthenticatorStoresClaims(t *testing.T) {
	var gotRole workflow.Role
	var gotID string
	h := authed(workflow.RoleDesigner, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = GetUserRole(r.Context())
		gotID = GetUserID(r.Context())
	}))

	do(h, bearer())
	assert.Equal(t, workflow.RoleDesigner, gotRole)
	assert.Equal(t, "user-1", gotID)
}

func TestRequireDestination(t *testing.T) {
	policy := navigation.Policy{}
	guard := RequireDestination(policy, navigation.AdsManager)

	tests := []struct {
		name string
		role workflow.Role
		want int
	}{
		{"team lead", workflow.RoleDMTeamLead, http.StatusOK},
		{"copywriter", workflow.RoleCopywriter, http.StatusForbidden},
		{"no role", workflow.RoleNone, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(authed(tt.role, guard(ok)), bearer())
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := do(guard(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDestinationAdmitsAnyListedKey(t *testing.T) {
	tasksOnly := RequireDestination(navigation.Policy{}, navigation.Tasks)
	taskWork := RequireDestination(navigation.Policy{}, navigation.Tasks, navigation.Campaigns)

	rec := do(authed(workflow.RoleDMTeamLead, tasksOnly(ok)), bearer())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "tasks")

	rec = do(authed(workflow.RoleDMTeamLead, taskWork(ok)), bearer())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(authed(workflow.RoleCopywriter, taskWork(ok)), bearer())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(authed(workflow.RoleNone, taskWork(ok)), bearer())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "tasks or campaigns")
}

func TestRequireDestinationHonoursOpenPolicy(t *testing.T) {
	guard := RequireDestination(
		navigation.Policy{AllowAllWithoutRole: true},
		navigation.Analytics,
	)
	rec := do(authed(workflow.RoleNone, guard(ok)), bearer())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	assert.Equal(t, http.StatusOK, do(authed(workflow.RoleAdmin, RequireAdmin(ok)), bearer()).Code)
	assert.Equal(t, http.StatusForbidden, do(authed(workflow.RoleDMManager, RequireAdmin(ok)), bearer()).Code)
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = do(h, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	})(ok)

	preflight := httptest.NewRequest(http.MethodOptions, "/v1/briefs", nil)
	preflight.Header.Set("Origin", "https://app.example.com")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := do(h, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))

	foreign := httptest.NewRequest(http.MethodGet, "/v1/briefs", nil)
	foreign.Header.Set("Origin", "https://evil.example.com")
	rec = do(h, foreign)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusRecorderFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}

	var _ http.Flusher = sr
	sr.Flush()
	assert.True(t, rec.Flushed)
	assert.Equal(t, http.StatusOK, sr.code())
}
