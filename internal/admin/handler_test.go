// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketflow/agency-api/internal/audit"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type sessions int

func (s sessions) ActiveSessions(context.Context) (int, error) { return int(s), nil }

type feed struct{}

func (feed) Subscribers() int { return 3 }
func (feed) Dropped() int64   { return 7 }

type auditLog struct {
	got audit.ListParams
}

func (a *auditLog) List(_ context.Context, params audit.ListParams) ([]audit.Entry, int, error) {
	a.got = params
	return []audit.Entry{{ID: "e1", TableName: "tasks", Action: audit.ActionTransition}}, 1, nil
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	pass := func(next http.Handler) http.Handler { return next }
	h.RegisterRoutes(r, pass, pass)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSystemStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DB:       pinger{},
		Redis:    pinger{err: errors.New("down")},
		Listener: pinger{},
		Feed:     feed{},
		Sessions: sessions(12),
	})

	rec := serve(h, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"database":{"healthy":true}`)
	assert.Contains(t, body, `"redis":{"healthy":false}`)
	assert.Contains(t, body, `"change_feed":{"connected":true,"subscribers":3,"dropped":7}`)
	assert.Contains(t, body, `"active_sessions":12`)
}

func TestListAudit(t *testing.T) {
	log := &auditLog{}
	h := NewHandler(HandlerConfig{Audit: log})

	rec := serve(h, "/admin/audit?table=tasks&page=2&page_size=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tasks", log.got.TableName)
	assert.Equal(t, 2, log.got.Page)
	assert.Equal(t, 200, log.got.PageSize)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = serve(h, "/admin/audit?record_id=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, "/admin/audit?page=two")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
