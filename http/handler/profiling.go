package handler

import (
	"net/http"
	"net/http/pprof"

	"github.com/labstack/echo/v4"
)

// The ProfilingHandler type provides a function to register the profiling endpoints
type ProfilingHandler struct {
	profiles []string
}

// NewProfiling returns a new Profiling type
func NewProfiling() *ProfilingHandler {
	return &ProfilingHandler{
		profiles: []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"},
	}
}

// Register registers the golang profiling endpoints with a router group
// @Summary Retrieve profiling data from the gateway
// @ID profiling
// @Produce text/html
// @Success 200 {string} string
// @Failure 404 {string} string
// @Router /profiling [get]
func (p *ProfilingHandler) Register(r *echo.Group) {
	r.GET("/", p.handler(pprof.Index))
	r.GET("/cmdline", p.handler(pprof.Cmdline))
	r.GET("/profile", p.handler(pprof.Profile))
	r.Match([]string{http.MethodGet, http.MethodPost}, "/symbol", p.handler(pprof.Symbol))
	r.GET("/trace", p.handler(pprof.Trace))

	for _, name := range p.profiles {
		r.GET("/"+name, p.handler(pprof.Handler(name).ServeHTTP))
	}
}

func (p *ProfilingHandler) handler(h http.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())

		return nil
	}
}
