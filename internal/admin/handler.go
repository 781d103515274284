// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/core"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type SessionCounter interface {
	ActiveSessions(ctx context.Context) (int, error)
}

type AuditReader interface {
	List(ctx context.Context, params audit.ListParams) ([]audit.Entry, int, error)
}

// FeedStats describes the change feed's fan-out.
type FeedStats interface {
	Subscribers() int
	Dropped() int64
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	db         Pinger
	redis      Pinger
	listener   Pinger
	feed       FeedStats
	sessions   SessionCounter
	audit      AuditReader
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DB         Pinger
	Redis      Pinger
	Listener   Pinger
	Feed       FeedStats
	Sessions   SessionCounter
	Audit      AuditReader
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		db:         cfg.DB,
		redis:      cfg.Redis,
		listener:   cfg.Listener,
		feed:       cfg.Feed,
		sessions:   cfg.Sessions,
		audit:      cfg.Audit,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/audit", h.ListAudit)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: healthy(ctx, h.db),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: healthy(ctx, h.redis),
			Stats:   h.getRedisStats(),
		},
		Feed:    h.getFeedStats(ctx),
		Runtime: runtimeStats(),
	}

	if h.sessions != nil {
		if n, err := h.sessions.ActiveSessions(ctx); err == nil {
			response.ActiveSessions = &n
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, runtimeStats())
}

// ListAudit pages through the audit trail, newest first.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := audit.ListParams{
		TableName: q.Get("table"),
		RecordID:  q.Get("record_id"),
		UserID:    q.Get("user_id"),
	}

	for _, id := range []string{params.RecordID, params.UserID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			core.BadRequest(w, "record_id and user_id must be UUIDs")
			return
		}
	}

	var err error
	if params.Page, err = intQuery(q.Get("page")); err != nil {
		core.BadRequest(w, "page must be a number")
		return
	}
	if params.PageSize, err = intQuery(q.Get("page_size")); err != nil {
		core.BadRequest(w, "page_size must be a number")
		return
	}
	params.Normalize()

	entries, total, err := h.audit.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, entries, params.Page, params.PageSize, total)
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

func (h *Handler) getFeedStats(ctx context.Context) FeedStatus {
	status := FeedStatus{Connected: healthy(ctx, h.listener)}
	if h.feed != nil {
		status.Subscribers = h.feed.Subscribers()
		status.Dropped = h.feed.Dropped()
	}
	return status
}

func healthy(ctx context.Context, p Pinger) bool {
	return p != nil && p.Ping(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func intQuery(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

type SystemStatsResponse struct {
	Database       DatabaseStatus `json:"database"`
	Redis          RedisStatus    `json:"redis"`
	Feed           FeedStatus     `json:"change_feed"`
	ActiveSessions *int           `json:"active_sessions,omitempty"`
	Runtime        RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type FeedStatus struct {
	Connected   bool  `json:"connected"`
	Subscribers int   `json:"subscribers"`
	Dropped     int64 `json:"dropped"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
