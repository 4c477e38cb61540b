package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/mock"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type brokenEngine struct {
	engine.Engine
}

func (brokenEngine) EachVolume(ctx context.Context, fn func(v engine.Volume) error) error {
	return engine.Internal(nil, "engine is gone")
}

func getDummyPingRouter(e engine.Engine) *echo.Echo {
	router := mock.DummyEcho()

	handler := NewPing(e)

	router.Add("GET", "/", handler.Ping)

	return router
}

func TestPing(t *testing.T) {
	e := mock.DummyEngine(t, mock.DummyFixtures(t, t.TempDir()))
	defer e.Close()

	router := getDummyPingRouter(e)

	response := mock.Request(t, http.StatusOK, router, "GET", "/", nil)

	require.Equal(t, "pong", string(response.Data.([]byte)))
}

func TestPingWithoutVolumes(t *testing.T) {
	router := getDummyPingRouter(nil)

	response := mock.Request(t, http.StatusOK, router, "GET", "/", nil)

	require.Equal(t, "pong", string(response.Data.([]byte)))
}

func TestPingBrokenEngine(t *testing.T) {
	router := getDummyPingRouter(brokenEngine{})

	mock.Request(t, http.StatusInternalServerError, router, "GET", "/", nil)
}
