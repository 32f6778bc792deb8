package config

import (
	"time"

	"github.com/sherine-k/packetsim/pkg/simulation"
)

// Input is the plain line-oriented workload: a buffer size and the packages
type Input struct {
	BufferSize int
	Packages   []simulation.Package
}

// Scenario represents the entire configuration for a YAML driven run
type Scenario struct {
	BufferSize int                  `yaml:"bufferSize"`
	Packages   []simulation.Package `yaml:"packages,omitempty"`

	// Start anchors generated arrivals; simulated time 0 is Start.
	Start   time.Time     `yaml:"start,omitempty"`
	Horizon time.Duration `yaml:"horizon,omitempty"`
	Sources []Source      `yaml:"sources,omitempty"`
}

// Source generates arrivals on a cron schedule
type Source struct {
	Name         string        `yaml:"name"`
	CronSchedule string        `yaml:"cronSchedule"`
	Duration     time.Duration `yaml:"duration"`

	// Burst is the number of packages emitted at every tick, 1 when unset
	Burst int `yaml:"burst,omitempty"`
}
