// AngelaMos | 2026
// hub.go

package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/marketflow/agency-api/internal/cache"
	"github.com/marketflow/agency-api/internal/core"
)

type Invalidator interface {
	InvalidateQuietly(ctx context.Context, collection string)
}

// collections maps a table to the cached collections its rows feed. Brief
// summaries roll up task statuses, so task changes reach both.
var collections = map[string][]string{
	"briefs": {cache.Briefs},
	"tasks":  {cache.Tasks, cache.Briefs},
}

type subscriber struct {
	table string
	ch    chan Change
}

// Hub fans changes out to subscribers. A subscriber whose buffer is full
// misses the change instead of stalling the others.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	buffer  int
	cache   Invalidator
	metrics *core.Metrics
	dropped atomic.Int64
}

func NewHub(buffer int, c Invalidator, metrics *core.Metrics) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		buffer:  buffer,
		cache:   c,
		metrics: metrics,
	}
}

// Subscribe registers for changes to table, or to every table when table
// is empty. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(table string) (<-chan Change, func()) {
	sub := &subscriber{table: table, ch: make(chan Change, h.buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(sub)
	}
}

// Close ends every subscription, letting open streams return.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		h.remove(sub)
	}
}

func (h *Hub) remove(sub *subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Publish invalidates the collections behind c.Table and delivers c to
// matching subscribers.
func (h *Hub) Publish(ctx context.Context, c Change) {
	h.metrics.ObserveNotification(c.Table)

	if h.cache != nil {
		for _, collection := range collections[c.Table] {
			h.cache.InvalidateQuietly(ctx, collection)
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.table != "" && sub.table != c.Table {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			h.dropped.Add(1)
			slog.DebugContext(ctx, "change dropped for slow subscriber",
				"table", c.Table,
				"op", c.Op,
			)
		}
	}
}

// Resync publishes a RESYNC for every table, after the feed may have
// missed notifications.
func (h *Hub) Resync(ctx context.Context) {
	for _, table := range Tables {
		h.Publish(ctx, Change{Table: table, Op: OpResync})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
