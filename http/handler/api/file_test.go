package api

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/mock"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func getDummyFileRouter(e engine.Engine, bandwidth uint64) (*echo.Echo, *FileHandler) {
	router := mock.DummyEcho()

	handler := NewFile(FileConfig{
		Engine:       e,
		MaxBandwidth: bandwidth,
	})

	router.HEAD("/api/volumes/:name/file", handler.Head)
	router.HEAD("/api/volumes/:name/file/*", handler.Head)
	router.GET("/api/volumes/:name/file/*", handler.Get)

	return router, handler
}

func rangeHeader(value string) http.Header {
	return http.Header{"Range": []string{value}}
}

func TestFileHeadFile(t *testing.T) {
	e := getDummyEngine(t, true)
	router, _ := getDummyFileRouter(e, 0)

	response := mock.RequestEx(t, http.StatusOK, router, "HEAD", "/api/volumes/test/file/test-copy", nil, nil, false)

	header := response.Header

	require.Equal(t, "34", header.Get("Content-Length"))
	require.Equal(t, "application/octet-stream", header.Get("Content-Type"))
	require.Equal(t, "bytes", header.Get("Accept-Ranges"))
	require.Equal(t, []string{"file"}, header["X-Slick-type"])

	ref, err := base64.StdEncoding.DecodeString(header["X-Slick-base64"][0])
	require.NoError(t, err)
	require.Equal(t, "fl", string(ref[:2]))
	require.Len(t, ref, 34)

	_, err = time.Parse(time.RFC3339Nano, header["X-Created-time"][0])
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339Nano, header["X-Modified-time"][0])
	require.NoError(t, err)
}

func TestFileHeadFolder(t *testing.T) {
	e := getDummyEngine(t, true)
	router, _ := getDummyFileRouter(e, 0)

	response := mock.RequestEx(t, http.StatusOK, router, "HEAD", "/api/volumes/test/file/dumb", nil, nil, false)

	header := response.Header

	require.Equal(t, "36", header.Get("Content-Length"))
	require.Equal(t, "x-slick/folder", header.Get("Content-Type"))
	require.Equal(t, []string{"folder"}, header["X-Slick-type"])
	require.Equal(t, []string{"2"}, header["X-Slick-folder-count"])
	require.Empty(t, header.Get("Accept-Ranges"))

	response = mock.RequestEx(t, http.StatusOK, router, "HEAD", "/api/volumes/test/file", nil, nil, false)
	require.Equal(t, []string{"5"}, response.Header["X-Slick-folder-count"])
	require.Equal(t, "111", response.Header.Get("Content-Length"))

	mock.RequestEx(t, http.StatusNotFound, router, "HEAD", "/api/volumes/test/file/nothing", nil, nil, false)
	mock.RequestEx(t, http.StatusNotFound, router, "HEAD", "/api/volumes/blah/file", nil, nil, false)
}

func TestFileGet(t *testing.T) {
	e := getDummyEngine(t, true)
	router, handler := getDummyFileRouter(e, 0)

	response := mock.Request(t, http.StatusOK, router, "GET", "/api/volumes/test/file/test-copy", nil)

	require.Equal(t, "application/octet-stream", response.Header.Get("Content-Type"))
	require.Equal(t, "34", response.Header.Get("Content-Length"))
	require.Equal(t, mock.Fixtures["test-copy"], string(response.Data.([]byte)))
	require.Equal(t, uint64(34), handler.BytesServed())

	response = mock.Request(t, http.StatusOK, router, "GET", "/api/volumes/test/file/dumb/two", nil)
	require.Equal(t, mock.Fixtures["dumb/two"], string(response.Data.([]byte)))

	response = mock.Request(t, http.StatusBadRequest, router, "GET", "/api/volumes/test/file/dumb", nil)
	require.Equal(t, "invalid target", response.Message)

	mock.Request(t, http.StatusNotFound, router, "GET", "/api/volumes/test/file/nothing", nil)
}

func TestFileGetLimited(t *testing.T) {
	e := getDummyEngine(t, true)
	router, _ := getDummyFileRouter(e, 1024)

	response := mock.Request(t, http.StatusOK, router, "GET", "/api/volumes/test/file/test-copy", nil)
	require.Equal(t, mock.Fixtures["test-copy"], string(response.Data.([]byte)))
}

func TestFileRange(t *testing.T) {
	e := getDummyEngine(t, true)
	router, _ := getDummyFileRouter(e, 0)

	response := mock.RequestEx(t, http.StatusPartialContent, router, "GET", "/api/volumes/test/file/test-copy", nil, rangeHeader("bytes=0-9"), true)

	require.Equal(t, "bytes 0-9/34", response.Header.Get("Content-Range"))
	require.Equal(t, "bytes", response.Header.Get("Accept-Ranges"))
	require.Equal(t, "10", response.Header.Get("Content-Length"))
	require.Equal(t, "application/octet-stream", response.Header.Get("Content-Type"))
	require.Equal(t, mock.Fixtures["test-copy"][0:10], string(response.Data.([]byte)))

	content := mock.Fixtures["test-copy"]

	for _, r := range [][2]int{{0, 1}, {3, 17}, {20, 33}, {32, 33}} {
		header := rangeHeader("bytes=" + itoa(r[0]) + "-" + itoa(r[1]))

		response := mock.RequestEx(t, http.StatusPartialContent, router, "GET", "/api/volumes/test/file/test-copy", nil, header, true)

		require.Equal(t, itoa(r[1]-r[0]+1), response.Header.Get("Content-Length"))
		require.Equal(t, content[r[0]:r[1]+1], string(response.Data.([]byte)))
	}

	response = mock.RequestEx(t, http.StatusPartialContent, router, "GET", "/api/volumes/test/file/test-copy", nil, rangeHeader("bytes=30-"), true)
	require.Equal(t, "bytes 30-33/34", response.Header.Get("Content-Range"))
	require.Equal(t, content[30:], string(response.Data.([]byte)))
}

func TestFileRangeRejected(t *testing.T) {
	e := getDummyEngine(t, true)
	router, _ := getDummyFileRouter(e, 0)

	for header, message := range map[string]string{
		"bytes=5-5":   "start is greater than end",
		"bytes=9-2":   "start is greater than end",
		"bytes=0-35":  "end exceeds file length",
		"bytes=abc-5": "invalid range",
		"bytes=-5":    "invalid range",
	} {
		response := mock.RequestEx(t, http.StatusBadRequest, router, "GET", "/api/volumes/test/file/test-copy", nil, rangeHeader(header), true)
		require.Equal(t, message, response.Message, header)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
