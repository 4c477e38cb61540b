package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type uptimeCollector struct {
	name  string
	start time.Time

	uptimeDesc *prometheus.Desc
}

func NewUptimeCollector(name string, start time.Time) prometheus.Collector {
	return &uptimeCollector{
		name:  name,
		start: start,
		uptimeDesc: prometheus.NewDesc(
			"slick_uptime_seconds",
			"Number of seconds the gateway is up",
			[]string{"gateway"}, nil),
	}
}

func (c *uptimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.uptimeDesc
}

func (c *uptimeCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.CounterValue, time.Since(c.start).Seconds(), c.name)
}
