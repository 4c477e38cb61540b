package handler

import (
	"fmt"
	"net/http"

	"github.com/slickfs/gateway/log"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The MetricsHandler type provides a handler function for reading the prometheus metrics
type MetricsHandler struct {
	handler http.Handler
}

// NewMetrics returns a new Metrics type. Collectors that fail are logged and
// the remaining metrics are still delivered.
func NewMetrics(gatherer prometheus.Gatherer, logger log.Logger) *MetricsHandler {
	if logger == nil {
		logger = log.New("")
	}

	return &MetricsHandler{
		handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			ErrorLog:      errorLog{logger},
			ErrorHandling: promhttp.ContinueOnError,
		}),
	}
}

// Metrics godoc
// @Summary Prometheus metrics
// @Description Volumes, operations, event streams and delivered bytes
// @ID metrics
// @Produce text/plain
// @Success 200 {string} string
// @Router /metrics [get]
func (m *MetricsHandler) Metrics(c echo.Context) error {
	m.handler.ServeHTTP(c.Response(), c.Request())

	return nil
}

type errorLog struct {
	logger log.Logger
}

func (l errorLog) Println(v ...interface{}) {
	l.logger.Warn().Log("%s", fmt.Sprint(v...))
}
