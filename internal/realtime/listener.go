// AngelaMos | 2026
// listener.go

package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	"github.com/marketflow/agency-api/internal/config"
)

const defaultPingInterval = 90 * time.Second

var ErrDisconnected = errors.New("change listener disconnected")

// Listener holds the LISTEN connection for the change channel and feeds
// the hub.
type Listener struct {
	dsn       string
	cfg       config.RealtimeConfig
	hub       *Hub
	logger    *slog.Logger
	connected atomic.Bool
}

func NewListener(
	dsn string,
	cfg config.RealtimeConfig,
	hub *Hub,
	logger *slog.Logger,
) *Listener {
	return &Listener{dsn: dsn, cfg: cfg, hub: hub, logger: logger}
}

// Run listens until ctx is done. lib/pq reconnects on its own; after a
// reconnect the hub is told to resync.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(
		l.dsn,
		l.cfg.MinReconnectInterval,
		l.cfg.MaxReconnectInterval,
		l.onEvent,
	)
	defer func() {
		l.connected.Store(false)
		_ = pl.Close() //nolint:errcheck // shutting down
	}()

	if err := pl.Listen(l.cfg.Channel); err != nil {
		return fmt.Errorf("listen on %s: %w", l.cfg.Channel, err)
	}
	l.connected.Store(true)
	l.logger.Info("change listener started", "channel", l.cfg.Channel)

	interval := l.cfg.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("change listener stopped")
			return nil

		case n := <-pl.Notify:
			if n == nil {
				l.hub.Resync(ctx)
				continue
			}
			l.handle(ctx, n.Extra)

		case <-ticker.C:
			if err := pl.Ping(); err != nil {
				l.logger.Warn("change listener ping failed", "error", err)
			}
		}
	}
}

func (l *Listener) handle(ctx context.Context, payload string) {
	change, err := ParseChange(payload)
	if err != nil {
		l.logger.Warn("ignoring change notification",
			"payload", payload,
			"error", err,
		)
		return
	}
	l.hub.Publish(ctx, change)
}

func (l *Listener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected, pq.ListenerEventReconnected:
		l.connected.Store(true)
		l.logger.Info("change listener connected")
	case pq.ListenerEventDisconnected:
		l.connected.Store(false)
		l.logger.Warn("change listener disconnected", "error", err)
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("change listener reconnect failed", "error", err)
	}
}

// Ping reports whether the LISTEN connection is up.
func (l *Listener) Ping(context.Context) error {
	if !l.connected.Load() {
		return ErrDisconnected
	}
	return nil
}
