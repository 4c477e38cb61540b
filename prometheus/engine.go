package prometheus

import (
	"context"
	"time"

	"github.com/slickfs/gateway/engine"

	"github.com/prometheus/client_golang/prometheus"
)

const collectTimeout = 5 * time.Second

type volumeCollector struct {
	name   string
	engine engine.Engine

	volumesDesc *prometheus.Desc
	sizeDesc    *prometheus.Desc
}

// NewVolumeCollector reports the number of volumes and the size of each volume.
func NewVolumeCollector(name string, e engine.Engine) prometheus.Collector {
	return &volumeCollector{
		name:   name,
		engine: e,
		volumesDesc: prometheus.NewDesc(
			"slick_volumes",
			"Number of volumes",
			[]string{"gateway"}, nil),
		sizeDesc: prometheus.NewDesc(
			"slick_volume_size_bytes",
			"Aggregated size of the contents of a volume",
			[]string{"gateway", "volume"}, nil),
	}
}

func (c *volumeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.volumesDesc
	ch <- c.sizeDesc
}

func (c *volumeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	count := 0

	err := c.engine.EachVolume(ctx, func(v engine.Volume) error {
		count++
		ch <- prometheus.MustNewConstMetric(c.sizeDesc, prometheus.GaugeValue, float64(v.Root.Size), c.name, v.Name)
		return nil
	})
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.volumesDesc, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.volumesDesc, prometheus.GaugeValue, float64(count), c.name)
}

type operationCollector struct {
	name   string
	engine engine.Engine

	operationsDesc *prometheus.Desc
}

// NewOperationCollector reports the number of operations in each state.
func NewOperationCollector(name string, e engine.Engine) prometheus.Collector {
	return &operationCollector{
		name:   name,
		engine: e,
		operationsDesc: prometheus.NewDesc(
			"slick_operations",
			"Number of operations by state",
			[]string{"gateway", "state"}, nil),
	}
}

func (c *operationCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.operationsDesc
}

func (c *operationCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	states := map[engine.OperationState]int{
		engine.StateQueued:    0,
		engine.StateRunning:   0,
		engine.StateCompleted: 0,
		engine.StateError:     0,
	}

	err := c.engine.Operations().Each(ctx, func(op engine.Operation) error {
		states[op.State]++
		return nil
	})
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.operationsDesc, err)
		return
	}

	for state, n := range states {
		ch <- prometheus.MustNewConstMetric(c.operationsDesc, prometheus.GaugeValue, float64(n), c.name, string(state))
	}
}
