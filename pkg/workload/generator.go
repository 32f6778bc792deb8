package workload

import (
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sherine-k/packetsim/pkg/config"
	"github.com/sherine-k/packetsim/pkg/simulation"
)

// Generate builds the arrival sequence of a scenario: its inline packages plus
// every package emitted by its cron sources between Start and Start+Horizon.
// Arrivals are expressed in seconds since Start and returned in arrival order;
// packages arriving at the same time keep the order inline first, then sources
// in declaration order.
func Generate(sc *config.Scenario) ([]simulation.Package, error) {
	packages := make([]simulation.Package, 0, len(sc.Packages))
	packages = append(packages, sc.Packages...)

	for i := range sc.Sources {
		generated, err := generateSource(&sc.Sources[i], sc.Start, sc.Start.Add(sc.Horizon))
		if err != nil {
			return nil, err
		}
		packages = append(packages, generated...)
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].Arrival < packages[j].Arrival
	})

	return packages, nil
}

// generateSource emits packages for every tick of the source's cron schedule
func generateSource(src *config.Source, start, end time.Time) ([]simulation.Package, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(src.CronSchedule)
	if err != nil {
		return nil, fmt.Errorf("source %s: failed to parse cron schedule: %w", src.Name, err)
	}

	burst := src.Burst
	if burst <= 0 {
		burst = 1
	}

	packages := []simulation.Package{}
	// Next is strictly after its argument, so step back to include a tick at start.
	current := start.Add(-time.Nanosecond)
	for {
		next := schedule.Next(current)
		if next.IsZero() || !next.Before(end) {
			break
		}

		offset := next.Sub(start).Seconds()
		for b := 0; b < burst; b++ {
			packages = append(packages, simulation.Package{
				Arrival:  offset,
				Duration: src.Duration.Seconds(),
			})
		}

		current = next
	}

	return packages, nil
}
