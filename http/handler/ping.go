package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"

	"github.com/labstack/echo/v4"
)

var errPingDone = errors.New("done")

// The PingHandler type provides a handler for a ping request
type PingHandler struct {
	engine  engine.Engine
	timeout time.Duration
}

// NewPing returns a new Ping type. The engine is asked for its volumes on
// every ping in order to tell whether it is still responding.
func NewPing(e engine.Engine) *PingHandler {
	return &PingHandler{
		engine:  e,
		timeout: 5 * time.Second,
	}
}

// Ping returns pong
// @Summary Liveliness check
// @Description Liveliness check of the gateway and the engine
// @ID ping
// @Produce text/plain
// @Success 200 {string} string "pong"
// @Failure 500 {object} api.Error
// @Router /ping [get]
func (p *PingHandler) Ping(c echo.Context) error {
	if p.engine != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), p.timeout)
		defer cancel()

		err := p.engine.EachVolume(ctx, func(v engine.Volume) error {
			return errPingDone
		})
		if err != nil && !errors.Is(err, errPingDone) {
			return api.Err(http.StatusInternalServerError, api.FatalMessage)
		}
	}

	return c.String(http.StatusOK, "pong")
}
