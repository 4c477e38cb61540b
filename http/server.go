// @title slick gateway API
// @version 1.0
// @description Volumes, entries and operations of a slick storage engine

// @BasePath /

package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/errorhandler"
	"github.com/slickfs/gateway/http/handler"
	api "github.com/slickfs/gateway/http/handler/api"
	httplog "github.com/slickfs/gateway/http/log"
	"github.com/slickfs/gateway/http/validator"
	"github.com/slickfs/gateway/log"
	"github.com/slickfs/gateway/prometheus"

	mwbodysize "github.com/slickfs/gateway/http/middleware/bodysize"
	mwcompress "github.com/slickfs/gateway/http/middleware/compress"
	mwcors "github.com/slickfs/gateway/http/middleware/cors"
	mwlog "github.com/slickfs/gateway/http/middleware/log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	Logger log.Logger
	Engine engine.Engine

	// Port is the port the gateway is listening on. It determines the only
	// allowed CORS origin.
	Port int

	// MaxBandwidth limits the delivery of file contents per request in kbit/s. 0 is unlimited.
	MaxBandwidth uint64

	// Keepalive is the interval of the keepalive comments on event streams.
	Keepalive time.Duration

	// Metrics is served on /metrics if not nil.
	Metrics prometheus.Reader

	Profiling bool
}

type Server interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Streams returns the number of open event streams.
	Streams() int64

	// BytesServed returns the number of delivered bytes of file contents.
	BytesServed() uint64
}

type server struct {
	logger log.Logger

	handler struct {
		metrics   *handler.MetricsHandler
		profiling *handler.ProfilingHandler
		ping      *handler.PingHandler
	}

	apihandler struct {
		volume    *api.VolumeHandler
		entry     *api.EntryHandler
		file      *api.FileHandler
		operation *api.OperationHandler
		events    *api.EventsHandler
	}

	middleware struct {
		log      echo.MiddlewareFunc
		bodysize echo.MiddlewareFunc
		cors     echo.MiddlewareFunc
		compress echo.MiddlewareFunc
	}

	router    *echo.Echo
	profiling bool
}

func NewServer(config Config) (Server, error) {
	s := &server{
		logger:    config.Logger,
		profiling: config.Profiling,
	}

	if config.Engine == nil {
		return nil, fmt.Errorf("no engine provided")
	}

	if s.logger == nil {
		s.logger = log.New("HTTP")
	}

	s.handler.ping = handler.NewPing(config.Engine)

	if config.Metrics != nil {
		s.handler.metrics = handler.NewMetrics(config.Metrics, s.logger.WithComponent("Metrics"))
	}

	if config.Profiling {
		s.handler.profiling = handler.NewProfiling()
	}

	s.apihandler.volume = api.NewVolume(config.Engine)
	s.apihandler.entry = api.NewEntry(config.Engine)
	s.apihandler.file = api.NewFile(api.FileConfig{
		Engine:       config.Engine,
		MaxBandwidth: config.MaxBandwidth,
		Logger:       s.logger.WithComponent("File"),
	})
	s.apihandler.operation = api.NewOperation(config.Engine, s.logger.WithComponent("Operations"))
	s.apihandler.events = api.NewEvents(api.EventsConfig{
		Engine:    config.Engine,
		Keepalive: config.Keepalive,
		Logger:    s.logger.WithComponent("Events"),
	})

	s.middleware.log = mwlog.NewWithConfig(mwlog.Config{
		Logger: s.logger,
	})

	s.middleware.bodysize = mwbodysize.New()

	cors, err := mwcors.NewWithConfig(mwcors.Config{
		Port: config.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create CORS middleware: %w", err)
	}

	s.middleware.cors = cors

	compress, err := mwcompress.NewWithConfig(mwcompress.Config{
		Level:        mwcompress.BestSpeed,
		MinLength:    1000,
		ContentTypes: []string{"application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create compress middleware: %w", err)
	}

	s.middleware.compress = compress

	s.router = echo.New()
	s.router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	s.router.Validator = validator.New()
	s.router.Use(s.middleware.log)
	s.router.Use(s.middleware.bodysize)
	s.router.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			rows := strings.Split(string(stack), "\n")
			s.logger.Error().WithField("stack", rows).Log("recovered from a panic")
			return nil
		},
	}))

	s.router.HideBanner = true
	s.router.HidePort = true

	s.router.Logger.SetOutput(httplog.NewWrapper(s.logger))

	s.router.Use(s.middleware.cors)

	s.setRoutes()

	return s, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) Streams() int64 {
	return s.apihandler.events.Streams()
}

func (s *server) BytesServed() uint64 {
	return s.apihandler.file.BytesServed()
}

func (s *server) setRoutes() {
	s.router.GET("/ping", s.handler.ping.Ping)

	if s.handler.metrics != nil {
		s.router.GET("/metrics", s.handler.metrics.Metrics)
	}

	if s.handler.profiling != nil {
		s.handler.profiling.Register(s.router.Group("/profiling"))
	}

	// API router group
	api := s.router.Group("/api")

	s.setRoutesVolumes(api)
	s.setRoutesOperations(api)
}

func (s *server) setRoutesVolumes(api *echo.Group) {
	api.GET("/volumes", s.apihandler.volume.List, s.middleware.compress)
	api.POST("/volumes", s.apihandler.volume.Create)
	api.GET("/volumes/:name", s.apihandler.volume.Get)
	api.DELETE("/volumes/:name", s.apihandler.volume.Delete)

	api.GET("/volumes/:name/entries", s.apihandler.entry.List, s.middleware.compress)
	api.GET("/volumes/:name/entries/*", s.apihandler.entry.List, s.middleware.compress)
	api.DELETE("/volumes/:name/entries/*", s.apihandler.entry.Remove)

	api.HEAD("/volumes/:name/file", s.apihandler.file.Head)
	api.HEAD("/volumes/:name/file/*", s.apihandler.file.Head)
	api.GET("/volumes/:name/file/*", s.apihandler.file.Get)
}

func (s *server) setRoutesOperations(api *echo.Group) {
	api.GET("/operations", s.apihandler.operation.List, s.middleware.compress)
	api.POST("/operations", s.apihandler.operation.Submit)

	api.GET("/operations/events", s.apihandler.events.All)
	api.GET("/operations/:id", s.apihandler.operation.Get)
	api.DELETE("/operations/:id", s.apihandler.operation.Cancel)
	api.GET("/operations/:id/events", s.apihandler.events.Operation)
}
