// AngelaMos | 2026
// hub_test.go

package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu          sync.Mutex
	collections []string
}

func (r *recordingInvalidator) InvalidateQuietly(_ context.Context, collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections = append(r.collections, collection)
}

func TestParseChange(t *testing.T) {
	c, err := ParseChange(`{"table":"tasks","op":"UPDATE","id":"t1"}`)
	require.NoError(t, err)
	assert.Equal(t, Change{Table: "tasks", Op: "UPDATE", ID: "t1"}, c)

	_, err = ParseChange(`{"op":"UPDATE"}`)
	assert.Error(t, err)

	_, err = ParseChange(`not json`)
	assert.Error(t, err)
}

func TestPublishInvalidatesCollections(t *testing.T) {
	inv := &recordingInvalidator{}
	hub := NewHub(4, inv, nil)

	hub.Publish(context.Background(), Change{Table: "tasks", Op: "UPDATE", ID: "t1"})
	assert.Equal(t, []string{"tasks", "briefs"}, inv.collections)

	hub.Publish(context.Background(), Change{Table: "briefs", Op: "INSERT", ID: "b1"})
	assert.Equal(t, []string{"tasks", "briefs", "briefs"}, inv.collections)
}

func TestSubscribeFiltersByTable(t *testing.T) {
	hub := NewHub(4, nil, nil)

	tasks, stopTasks := hub.Subscribe("tasks")
	defer stopTasks()
	all, stopAll := hub.Subscribe("")
	defer stopAll()

	hub.Publish(context.Background(), Change{Table: "briefs", Op: "INSERT", ID: "b1"})
	hub.Publish(context.Background(), Change{Table: "tasks", Op: "UPDATE", ID: "t1"})

	assert.Equal(t, "t1", (<-tasks).ID)
	assert.Equal(t, "b1", (<-all).ID)
	assert.Equal(t, "t1", (<-all).ID)
	assert.Empty(t, tasks)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1, nil, nil)

	slow, stop := hub.Subscribe("")
	defer stop()

	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), Change{Table: "tasks", Op: "UPDATE"})
	}

	assert.Len(t, slow, 1)
	assert.Equal(t, int64(2), hub.Dropped())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1, nil, nil)

	ch, stop := hub.Subscribe("briefs")
	assert.Equal(t, 1, hub.Subscribers())

	stop()
	stop()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers())

	hub.Publish(context.Background(), Change{Table: "briefs", Op: "DELETE"})
}

func TestCloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(1, nil, nil)

	a, stopA := hub.Subscribe("")
	b, _ := hub.Subscribe("tasks")

	hub.Close()
	stopA()

	_, open := <-a
	assert.False(t, open)
	_, open = <-b
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestResyncReachesEveryTable(t *testing.T) {
	inv := &recordingInvalidator{}
	hub := NewHub(4, inv, nil)

	ch, stop := hub.Subscribe("")
	defer stop()

	hub.Resync(context.Background())

	first, second := <-ch, <-ch
	assert.Equal(t, OpResync, first.Op)
	assert.Equal(t, OpResync, second.Op)
	assert.ElementsMatch(t, []string{"briefs", "tasks"}, []string{first.Table, second.Table})
	assert.Contains(t, inv.collections, "tasks")
}

func TestListenerPingReflectsConnection(t *testing.T) {
	l := &Listener{}
	assert.ErrorIs(t, l.Ping(context.Background()), ErrDisconnected)

	l.connected.Store(true)
	assert.NoError(t, l.Ping(context.Background()))
}

func TestStream(t *testing.T) {
	hub := NewHub(4, nil, nil)
	pass := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	NewHandler(hub).RegisterRoutes(r, pass, pass)
	srv := httptest.NewServer(r)
	defer srv.Close()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/changes?table=ads", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/changes?table=tasks", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	hub.Publish(ctx, Change{Table: "briefs", Op: "UPDATE", ID: "b1"})
	hub.Publish(ctx, Change{Table: "tasks", Op: "UPDATE", ID: "t1"})

	var event []string
	for len(event) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		event = append(event, line)
	}
	assert.Equal(t, "event: change", event[0])
	assert.Equal(t, `data: {"table":"tasks","op":"UPDATE","id":"t1"}`, event[1])

	cancel()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 },
		2*time.Second, 10*time.Millisecond)
}
