package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StreamCounter is implemented by handlers that keep long lived event streams.
type StreamCounter interface {
	Streams() int64
}

// ByteCounter is implemented by handlers that deliver file contents.
type ByteCounter interface {
	BytesServed() uint64
}

type httpCollector struct {
	name    string
	streams StreamCounter
	bytes   ByteCounter

	streamsDesc *prometheus.Desc
	bytesDesc   *prometheus.Desc
}

func NewHTTPCollector(name string, streams StreamCounter, bytes ByteCounter) prometheus.Collector {
	return &httpCollector{
		name:    name,
		streams: streams,
		bytes:   bytes,
		streamsDesc: prometheus.NewDesc(
			"slick_event_streams",
			"Number of open event streams",
			[]string{"gateway"}, nil),
		bytesDesc: prometheus.NewDesc(
			"slick_served_bytes",
			"Total number of delivered file bytes",
			[]string{"gateway"}, nil),
	}
}

func (c *httpCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.streamsDesc
	ch <- c.bytesDesc
}

func (c *httpCollector) Collect(ch chan<- prometheus.Metric) {
	if c.streams != nil {
		ch <- prometheus.MustNewConstMetric(c.streamsDesc, prometheus.GaugeValue, float64(c.streams.Streams()), c.name)
	}

	if c.bytes != nil {
		ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.CounterValue, float64(c.bytes.BytesServed()), c.name)
	}
}
