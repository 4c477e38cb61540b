// Package cors implements a middleware that allows cross-origin requests only
// from the gateway's own loopback origin.
package cors

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper

	// Port is the port the gateway is listening on.
	Port int
}

var DefaultConfig = Config{
	Skipper: middleware.DefaultSkipper,
	Port:    8042,
}

// Origin returns the only origin that is allowed for the given port.
func Origin(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/", port)
}

func New() echo.MiddlewareFunc {
	mw, _ := NewWithConfig(DefaultConfig)

	return mw
}

func NewWithConfig(config Config) (echo.MiddlewareFunc, error) {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Port)
	}

	origin := Origin(config.Port)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			// Set before the handler runs, error responses must carry it as well.
			c.Response().Header()[echo.HeaderAccessControlAllowOrigin] = []string{origin}

			return next(c)
		}
	}, nil
}
