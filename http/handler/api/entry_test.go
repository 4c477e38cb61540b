package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/mock"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func getDummyEntryRouter(e engine.Engine) *echo.Echo {
	router := mock.DummyEcho()

	handler := NewEntry(e)

	router.GET("/api/volumes/:name/entries", handler.List)
	router.GET("/api/volumes/:name/entries/*", handler.List)
	router.DELETE("/api/volumes/:name/entries/*", handler.Remove)

	return router
}

type entrySummary struct {
	Name   string
	Folder bool
	Size   float64
	Type   interface{}
	URL    string
}

func summarize(t *testing.T, data interface{}) []entrySummary {
	list := []entrySummary{}

	for _, e := range data.(map[string]interface{})["entries"].([]interface{}) {
		entry := e.(map[string]interface{})

		list = append(list, entrySummary{
			Name:   entry["name"].(string),
			Folder: entry["folder"].(bool),
			Size:   entry["size"].(float64),
			Type:   entry["type"],
			URL:    entry["url"].(string),
		})
	}

	return list
}

func TestEntryList(t *testing.T) {
	e := getDummyEngine(t, true)
	router := getDummyEntryRouter(e)

	response := mock.Request(t, http.StatusOK, router, "GET", "/api/volumes/test/entries", nil)

	mock.Validate(t, &api.EntryList{}, response.Data)

	require.Equal(t, []entrySummary{
		{Name: "another-file", Folder: false, Size: 9, Type: "application/octet-stream", URL: "/api/volumes/test/entries/another-file"},
		{Name: "dumb", Folder: true, Size: 36, Type: nil, URL: "/api/volumes/test/entries/dumb"},
		{Name: "image.png", Folder: false, Size: 24, Type: "image/png", URL: "/api/volumes/test/entries/image.png"},
		{Name: "test-copy", Folder: false, Size: 34, Type: "application/octet-stream", URL: "/api/volumes/test/entries/test-copy"},
		{Name: "test-copy2", Folder: false, Size: 8, Type: "application/octet-stream", URL: "/api/volumes/test/entries/test-copy2"},
	}, summarize(t, response.Data))

	entries := response.Data.(map[string]interface{})["entries"].([]interface{})
	require.Len(t, entries[0].(map[string]interface{})["digest"], 64)
	require.NotContains(t, entries[1].(map[string]interface{}), "digest")
	require.Equal(t, "/dumb", entries[1].(map[string]interface{})["fullpath"])
}

func TestEntryListFolder(t *testing.T) {
	e := getDummyEngine(t, true)
	router := getDummyEntryRouter(e)

	response := mock.Request(t, http.StatusOK, router, "GET", "/api/volumes/test/entries/dumb?token=abc", nil)

	list := summarize(t, response.Data)
	require.Len(t, list, 2)
	require.Equal(t, "/api/volumes/test/entries/dumb/one?token=abc", list[0].URL)
	require.Equal(t, "/api/volumes/test/entries/dumb/two?token=abc", list[1].URL)
}

func TestEntryListErrors(t *testing.T) {
	e := getDummyEngine(t, true)
	router := getDummyEntryRouter(e)

	mock.Request(t, http.StatusNotFound, router, "GET", "/api/volumes/test/entries/some-other-thing", nil)
	mock.Request(t, http.StatusNotFound, router, "GET", "/api/volumes/blah/entries", nil)
	mock.Request(t, http.StatusBadRequest, router, "GET", "/api/volumes/test/entries/test-copy", nil)
}

func TestEntryRemove(t *testing.T) {
	e := getDummyEngine(t, true)
	router := getDummyEntryRouter(e)

	mock.Request(t, http.StatusCreated, router, "DELETE", "/api/volumes/test/entries/dumb", nil)

	_, err := e.Stat(context.Background(), "test", "/dumb")
	require.True(t, engine.IsNotFound(err))

	mock.Request(t, http.StatusNotFound, router, "DELETE", "/api/volumes/test/entries/dumb", nil)

	response := mock.Request(t, http.StatusBadRequest, router, "DELETE", "/api/volumes/test/entries/", nil)
	require.Equal(t, "can't remove the root folder", response.Message)
}
