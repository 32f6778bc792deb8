package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sherine-k/packetsim/pkg/simulation"
)

const namespace = "packetsim"

// Collector turns simulation events into Prometheus metrics.
// It owns a private registry so independent runs never share series.
type Collector struct {
	registry *prometheus.Registry

	arrivals      prometheus.Counter
	served        prometheus.Counter
	dropped       prometheus.Counter
	wait          prometheus.Histogram
	maxQueueDepth prometheus.Gauge
	makespan      prometheus.Gauge

	depth float64
	end   float64
}

// NewCollector creates a collector with its metrics registered
func NewCollector(bufferSize int) *Collector {
	constLabels := prometheus.Labels{"buffer_size": strconv.Itoa(bufferSize)}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		arrivals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "arrivals_total",
			Help:        "Packages that reached the buffer, dropped or not",
			ConstLabels: constLabels,
		}),
		served: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "served_total",
			Help:        "Packages dispatched to the server",
			ConstLabels: constLabels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "dropped_total",
			Help:        "Packages dropped because the buffer was full",
			ConstLabels: constLabels,
		}),
		wait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "wait_seconds",
			Help:        "Simulated time between arrival and service start",
			ConstLabels: constLabels,
			Buckets:     []float64{0, 0.1, 0.5, 1, 5, 10, 60, 300, 3600},
		}),
		maxQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "max_queue_depth",
			Help:        "Highest buffer occupancy seen, including the package in service",
			ConstLabels: constLabels,
		}),
		makespan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "makespan_seconds",
			Help:        "Simulated time at which the last package finished",
			ConstLabels: constLabels,
		}),
	}

	c.registry.MustRegister(
		c.arrivals,
		c.served,
		c.dropped,
		c.wait,
		c.maxQueueDepth,
		c.makespan,
	)

	return c
}

// Observe implements simulation.Observer
func (c *Collector) Observe(e simulation.Event, r simulation.Record) {
	switch e.Type {
	case simulation.EventTypeArrival:
		c.arrivals.Inc()
	case simulation.EventTypeDrop:
		c.arrivals.Inc()
		c.dropped.Inc()
	case simulation.EventTypeDispatch:
		c.served.Inc()
		c.wait.Observe(r.Wait())
	case simulation.EventTypeCompletion:
		if e.Time > c.end {
			c.end = e.Time
			c.makespan.Set(c.end)
		}
	}

	if d := float64(e.QueueDepth); d > c.depth {
		c.depth = d
		c.maxQueueDepth.Set(d)
	}
}

// Registry returns the registry holding the collector's metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the metrics in the Prometheus text format, suitable for
// the node exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
