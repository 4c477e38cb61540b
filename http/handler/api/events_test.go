package api

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/engine/blob"
	"github.com/slickfs/gateway/engine/slick"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/mock"

	"github.com/stretchr/testify/require"
)

// gatedStore holds back writes until the gate is opened.
type gatedStore struct {
	blob.Store
	gate chan struct{}
}

func (s *gatedStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.Store.Put(ctx, key, r, size)
}

func getDummyEventsServer(t *testing.T, e engine.Engine) (*httptest.Server, *EventsHandler) {
	router := mock.DummyEcho()

	handler := NewEvents(EventsConfig{
		Engine:    e,
		Keepalive: 50 * time.Millisecond,
	})

	router.GET("/api/operations/events", handler.All)
	router.GET("/api/operations/:id/events", handler.Operation)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, handler
}

type sseEvent struct {
	id   int64
	data api.OperationEvent
}

// sseReader reads the events of a stream and skips comments.
type sseReader struct {
	scanner *bufio.Scanner
}

func (r *sseReader) next(t *testing.T) (sseEvent, bool) {
	evt := sseEvent{id: -1}

	for r.scanner.Scan() {
		line := r.scanner.Text()

		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			id, err := strconv.ParseInt(strings.TrimPrefix(line, "id: "), 10, 64)
			require.NoError(t, err)
			evt.id = id
		case strings.HasPrefix(line, "data: "):
			err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt.data)
			require.NoError(t, err)
		case len(line) == 0:
			if evt.id != -1 {
				return evt, true
			}
		default:
			t.Fatalf("unexpected line: %s", line)
		}
	}

	return evt, false
}

func openStream(t *testing.T, ctx context.Context, url string) (*http.Response, *sseReader) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))
	require.Equal(t, "no-cache", res.Header.Get("Cache-Control"))

	return res, &sseReader{scanner: bufio.NewScanner(res.Body)}
}

func readAll(t *testing.T, r *sseReader) []sseEvent {
	events := []sseEvent{}

	for {
		evt, ok := r.next(t)
		if !ok {
			return events
		}

		events = append(events, evt)
	}
}

func TestEventsFinished(t *testing.T) {
	e := getDummyEngine(t, false)
	server, handler := getDummyEventsServer(t, e)

	id, err := e.Add(context.Background(), "test", "/", []string{}, engine.AddOptions{})
	require.NoError(t, err)
	mock.WaitOperation(t, e, id)

	_, r := openStream(t, context.Background(), server.URL+"/api/operations/"+strconv.FormatInt(id, 10)+"/events")

	events := readAll(t, r)
	require.Len(t, events, 1)
	require.Equal(t, int64(0), events[0].id)
	require.Equal(t, api.OperationEvent{OperationID: id, State: "completed"}, events[0].data)

	require.Eventually(t, func() bool { return handler.Streams() == 0 }, time.Second, 10*time.Millisecond)
}

func TestEventsUnknown(t *testing.T) {
	e := getDummyEngine(t, false)
	server, _ := getDummyEventsServer(t, e)

	_, r := openStream(t, context.Background(), server.URL+"/api/operations/999/events")

	events := readAll(t, r)
	require.Len(t, events, 1)
	require.Equal(t, api.OperationEvent{OperationID: 999, State: "error", Message: "operation 999 not found"}, events[0].data)

	res, err := http.Get(server.URL + "/api/operations/abc/events")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func getGatedEngine(t *testing.T) (engine.Engine, *gatedStore, string) {
	blobs := &gatedStore{Store: blob.NewMemStore(), gate: make(chan struct{})}

	e, err := slick.New(slick.Config{Blobs: blobs, Workers: 1})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	require.NoError(t, e.CreateVolume(context.Background(), "test"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("aaaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b"), []byte("bbbbbb"), 0644))

	return e, blobs, dir
}

func TestEventsProgress(t *testing.T) {
	e, blobs, dir := getGatedEngine(t)
	server, _ := getDummyEventsServer(t, e)

	id, err := e.Add(context.Background(), "test", "/", []string{filepath.Join(dir, "*")}, engine.AddOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		op, err := e.Operations().Get(context.Background(), id)
		return err == nil && op.State == engine.StateRunning
	}, time.Second, 10*time.Millisecond)

	url := server.URL + "/api/operations/" + strconv.FormatInt(id, 10) + "/events"

	_, r1 := openStream(t, context.Background(), url)
	_, r2 := openStream(t, context.Background(), url)

	for _, r := range []*sseReader{r1, r2} {
		evt, ok := r.next(t)
		require.True(t, ok)
		require.Equal(t, int64(0), evt.id)
		require.Equal(t, "running", evt.data.State)
	}

	close(blobs.gate)

	for _, r := range []*sseReader{r1, r2} {
		events := readAll(t, r)
		require.NotEmpty(t, events)

		terminal := 0

		for i, evt := range events {
			require.Equal(t, int64(i+1), evt.id)
			require.Equal(t, id, evt.data.OperationID)

			if evt.data.Final() {
				terminal++
				require.Equal(t, "completed", evt.data.State)
				require.Equal(t, len(events)-1, i)
				continue
			}

			require.Equal(t, "progress", evt.data.State)
			require.Equal(t, int64(10), *evt.data.Total)
		}

		require.Equal(t, 1, terminal)
	}
}

func TestEventsCancel(t *testing.T) {
	e, _, dir := getGatedEngine(t)
	server, _ := getDummyEventsServer(t, e)

	id, err := e.Add(context.Background(), "test", "/", []string{filepath.Join(dir, "*")}, engine.AddOptions{})
	require.NoError(t, err)

	_, r := openStream(t, context.Background(), server.URL+"/api/operations/"+strconv.FormatInt(id, 10)+"/events")

	evt, ok := r.next(t)
	require.True(t, ok)
	require.False(t, evt.data.Final())

	require.NoError(t, e.Operations().Cancel(context.Background(), id))

	events := readAll(t, r)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, api.OperationEvent{OperationID: id, State: "error", Message: "operation canceled"}, last.data)
}

func TestEventsAll(t *testing.T) {
	e, blobs, dir := getGatedEngine(t)
	server, handler := getDummyEventsServer(t, e)

	running, err := e.Add(context.Background(), "test", "/", []string{filepath.Join(dir, "a")}, engine.AddOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, r := openStream(t, ctx, server.URL+"/api/operations/events")

	evt, ok := r.next(t)
	require.True(t, ok)
	require.Equal(t, int64(0), evt.id)
	require.Equal(t, running, evt.data.OperationID)

	next, err := e.Add(context.Background(), "test", "/", []string{filepath.Join(dir, "b")}, engine.AddOptions{})
	require.NoError(t, err)

	close(blobs.gate)

	completed := map[int64]bool{}
	seq := evt.id

	for len(completed) < 2 {
		evt, ok := r.next(t)
		require.True(t, ok)
		require.Equal(t, seq+1, evt.id)
		seq = evt.id

		if evt.data.State == "completed" {
			completed[evt.data.OperationID] = true
		}
	}

	require.True(t, completed[running])
	require.True(t, completed[next])
	require.Equal(t, int64(1), handler.Streams())

	cancel()

	require.Eventually(t, func() bool { return handler.Streams() == 0 }, time.Second, 10*time.Millisecond)
}
