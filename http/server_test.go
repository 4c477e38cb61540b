package http

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/mock"
	"github.com/slickfs/gateway/prometheus"

	"github.com/stretchr/testify/require"
)

func getDummyServer(t *testing.T, e engine.Engine, metrics prometheus.Reader) Server {
	s, err := NewServer(Config{
		Engine:  e,
		Port:    8042,
		Metrics: metrics,
	})
	require.NoError(t, err)

	return s
}

func request(s Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if len(body) != 0 {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for key, values := range header {
		req.Header[key] = values
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	return rec
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(Config{Port: 8042})
	require.Error(t, err)

	e := mock.DummyEngine(t, "")
	defer e.Close()

	_, err = NewServer(Config{Engine: e})
	require.Error(t, err)
}

func TestCORS(t *testing.T) {
	e := mock.DummyEngine(t, "")
	defer e.Close()

	s := getDummyServer(t, e, nil)

	for _, path := range []string{"/ping", "/api/volumes", "/api/volumes/foobar", "/api/unknown"} {
		rec := request(s, "GET", path, "", nil)
		require.Equal(t, "http://127.0.0.1:8042/", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestNotFound(t *testing.T) {
	e := mock.DummyEngine(t, "")
	defer e.Close()

	s := getDummyServer(t, e, nil)

	rec := request(s, "GET", "/api/unknown", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(s, "PUT", "/api/volumes", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(s, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(s, "GET", "/profiling/cmdline", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVolumeListing(t *testing.T) {
	e := mock.DummyEngine(t, "")
	defer e.Close()

	s := getDummyServer(t, e, nil)

	rec := request(s, "GET", "/api/volumes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"volumes":[{"name":"test","url":"/api/volumes/test/entries","size":0}]}`, rec.Body.String())

	rec = request(s, "POST", "/api/volumes", `{"name":"other"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	for i := 0; i < 2; i++ {
		rec = request(s, "GET", "/api/volumes", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"volumes":[
			{"name":"other","url":"/api/volumes/other/entries","size":0},
			{"name":"test","url":"/api/volumes/test/entries","size":0}
		]}`, rec.Body.String())
	}

	rec = request(s, "DELETE", "/api/volumes/other", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAddAndRead(t *testing.T) {
	source := mock.DummyFixtures(t, t.TempDir())

	e := mock.DummyEngine(t, "")
	defer e.Close()

	s := getDummyServer(t, e, nil)

	body, err := json.Marshal(map[string]interface{}{
		"type": "add",
		"destination": map[string]string{
			"name": "test",
			"path": "/",
		},
		"sources": []string{filepath.Join(source, "test-copy")},
	})
	require.NoError(t, err)

	rec := request(s, "POST", "/api/operations", string(body), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/api/operations/"))

	id, err := strconv.ParseInt(strings.TrimPrefix(location, "/api/operations/"), 10, 64)
	require.NoError(t, err)

	op := mock.WaitOperation(t, e, id)
	require.Equal(t, engine.StateCompleted, op.State)

	rec = request(s, "GET", location, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"operation":{"state":"completed","events":"`+location+`/events"}}`, rec.Body.String())

	rec = request(s, "HEAD", "/api/volumes/test/file/test-copy", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "34", rec.Header().Get("Content-Length"))
	require.Equal(t, "file", rec.Header()["X-Slick-type"][0])

	rec = request(s, "GET", "/api/volumes/test/file/test-copy", "", http.Header{
		"Range": []string{"bytes=0-9"},
	})
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 0-9/34", rec.Header().Get("Content-Range"))
	require.Equal(t, "10", rec.Header().Get("Content-Length"))
	require.Equal(t, mock.Fixtures["test-copy"][:10], rec.Body.String())

	rec = request(s, "GET", "/api/volumes/test/entries", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `"fullpath":"/test-copy"`))

	require.Equal(t, uint64(10), s.BytesServed())
	require.Equal(t, int64(0), s.Streams())
}

func TestMetrics(t *testing.T) {
	e := mock.DummyEngine(t, "")
	defer e.Close()

	metrics := prometheus.New()
	require.NoError(t, metrics.Register(prometheus.NewVolumeCollector("test", e)))

	s := getDummyServer(t, e, metrics)

	rec := request(s, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `slick_volumes{gateway="test"} 1`))
}
