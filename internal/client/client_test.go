// AngelaMos | 2026
// client_test.go

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
	"github.com/marketflow/agency-api/internal/workflow"
)

type memoryRepo struct {
	clients []*Client
}

func (m *memoryRepo) Create(_ context.Context, c *Client) error {
	now := time.Now()
	c.IsActive = true
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	m.clients = append(m.clients, &cp)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryRepo) Update(_ context.Context, c *Client) error {
	for i, existing := range m.clients {
		if existing.ID == c.ID {
			c.UpdatedAt = time.Now()
			cp := *c
			m.clients[i] = &cp
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memoryRepo) Deactivate(_ context.Context, id string) (*Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			c.IsActive = false
			cp := *c
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, params ListParams) ([]Client, error) {
	out := []Client{}
	for _, c := range m.clients {
		if params.Active != nil && c.IsActive != *params.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

type recordingAuditor struct {
	changes []audit.Change
}

func (r *recordingAuditor) RecordQuietly(_ context.Context, c audit.Change) {
	r.changes = append(r.changes, c)
}

type roleVerifier workflow.Role

func (v roleVerifier) VerifyAccessToken(
	context.Context,
	string,
) (*middleware.AccessTokenClaims, error) {
	return &middleware.AccessTokenClaims{UserID: "user-1", Role: workflow.Role(v)}, nil
}

func newRouter(svc *Service, role workflow.Role) http.Handler {
	r := chi.NewRouter()
	pass := func(next http.Handler) http.Handler { return next }
	NewHandler(svc).RegisterRoutes(
		r,
		middleware.Authenticator(roleVerifier(role)),
		pass,
		middleware.RequireRole(workflow.RoleAdmin, workflow.RoleDMManager),
	)
	return r
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *core.ErrorBody `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env
}

func TestCreateThenList(t *testing.T) {
	auditor := &recordingAuditor{}
	svc := NewService(&memoryRepo{}, nil, auditor)
	h := newRouter(svc, workflow.RoleDMManager)

	rec := call(h, http.MethodPost, "/clients/",
		`{"name":"Acme","industry":"Retail","monthly_budget":50000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Client
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)

	rec = call(h, http.MethodGet, "/clients/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []Client
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, "Acme", listed[0].Name)
	assert.False(t, listed[0].CreatedAt.IsZero())
	assert.False(t, listed[0].UpdatedAt.IsZero())
	assert.True(t, listed[0].IsActive)

	require.Len(t, auditor.changes, 1)
	assert.Equal(t, "clients", auditor.changes[0].Table)
	assert.Equal(t, audit.ActionCreate, auditor.changes[0].Action)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil, &recordingAuditor{})
	h := newRouter(svc, workflow.RoleAdmin)

	rec := call(h, http.MethodPost, "/clients/", `{"name":"","industry":"Retail"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodPost, "/clients/",
		`{"name":"Acme","industry":"Retail","monthly_budget":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWritesNeedManagerRole(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil, &recordingAuditor{})
	h := newRouter(svc, workflow.RoleClientCoordinator)

	rec := call(h, http.MethodPost, "/clients/", `{"name":"Acme","industry":"Retail"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(h, http.MethodGet, "/clients/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateAndDeactivate(t *testing.T) {
	repo := &memoryRepo{}
	auditor := &recordingAuditor{}
	svc := NewService(repo, nil, auditor)
	ctx := context.Background()

	c, err := svc.Create(ctx, "user-1", CreateRequest{Name: "Acme", Industry: "Retail"})
	require.NoError(t, err)

	budget := 1200.0
	updated, err := svc.Update(ctx, "user-1", c.ID, UpdateRequest{MonthlyBudget: &budget})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, updated.MonthlyBudget)
	assert.Equal(t, "Acme", updated.Name)

	h := newRouter(svc, workflow.RoleAdmin)
	rec := call(h, http.MethodPost, "/clients/"+c.ID+"/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(h, http.MethodGet, "/clients/?active=true", "")
	var active []Client
	decode(t, rec, &active)
	assert.Empty(t, active)

	rec = call(h, http.MethodGet, "/clients/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodGet, "/clients/7f1e7c1e-4a53-4f7a-9a52-0f2f7f1d9b10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Len(t, auditor.changes, 3)
}
