package chart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sherine-k/packetsim/pkg/simulation"
)

const (
	chartWidth = 80
	// Larger buffers are scaled down to this many rows
	maxRows = 20
)

// Generator generates ASCII reports of a simulation run
type Generator struct {
	width   int
	maxRows int
}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{
		width:   chartWidth,
		maxRows: maxRows,
	}
}

// GenerateQueueChart generates an ASCII chart showing buffer occupancy over
// simulated time. Columns with at least one drop get a '!' marker on top.
func (g *Generator) GenerateQueueChart(timePoints []simulation.TimePoint, events []simulation.Event, bufferSize int) string {
	if len(timePoints) == 0 || bufferSize == 0 {
		return "No data to display"
	}

	var sb strings.Builder

	// Header
	sb.WriteString("\n")
	sb.WriteString("Buffer Occupancy Over Time\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	plotWidth := g.width - 6
	start := timePoints[0].Time
	end := timePoints[len(timePoints)-1].Time
	span := end - start

	column := func(t float64) int {
		if span <= 0 {
			return 0
		}
		x := int((t - start) / span * float64(plotWidth-1))
		return min(max(x, 0), plotWidth-1)
	}

	// Highest depth per column so short bursts stay visible
	depths := make([]int, plotWidth)
	for i := range depths {
		depths[i] = -1
	}
	for _, tp := range timePoints {
		x := column(tp.Time)
		depths[x] = max(depths[x], tp.QueueDepth)
	}
	// Columns without a point carry the previous state forward
	last := 0
	for i, d := range depths {
		if d < 0 {
			depths[i] = last
		} else {
			last = d
		}
	}

	drops := make([]bool, plotWidth)
	hasDrops := false
	for _, e := range events {
		if e.Type == simulation.EventTypeDrop {
			drops[column(e.Time)] = true
			hasDrops = true
		}
	}

	rows := min(bufferSize, g.maxRows)
	slotsPerRow := float64(bufferSize) / float64(rows)

	if hasDrops {
		sb.WriteString("    |")
		for _, dropped := range drops {
			if dropped {
				sb.WriteString("!")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
		sb.WriteString("    ")
		sb.WriteString(strings.Repeat("-", g.width-4))
		sb.WriteString("\n")
	}

	for row := rows; row >= 1; row-- {
		threshold := float64(row-1)*slotsPerRow + 1
		sb.WriteString(fmt.Sprintf("%3d |", int(threshold)))

		for _, d := range depths {
			if float64(d) >= threshold {
				sb.WriteString("█")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	// X-axis
	sb.WriteString("    +")
	sb.WriteString(strings.Repeat("-", plotWidth))
	sb.WriteString("\n")

	startLabel := FormatTime(start)
	endLabel := FormatTime(end)
	gap := max(plotWidth-len(startLabel)-len(endLabel), 1)
	sb.WriteString("     ")
	sb.WriteString(startLabel)
	sb.WriteString(strings.Repeat(" ", gap))
	sb.WriteString(endLabel)
	sb.WriteString("\n")

	// Legend
	sb.WriteString("\n")
	sb.WriteString("Legend:\n")
	sb.WriteString(fmt.Sprintf("  Buffer slots (1-%d), the package in service holds one:\n", bufferSize))
	sb.WriteString("    █ - Occupied slot\n")
	sb.WriteString("    (space) - Free slot\n")
	if hasDrops {
		sb.WriteString("  Top row:\n")
		sb.WriteString("    ! - Package dropped on a full buffer\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// GenerateEventSummary generates a summary of events
func (g *Generator) GenerateEventSummary(summary simulation.Summary, events []simulation.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Event Summary\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	// Group events by type
	eventsByType := make(map[simulation.EventType]int)
	for _, event := range events {
		eventsByType[event.Type]++
	}

	sb.WriteString(fmt.Sprintf("Total Events: %d\n", len(events)))
	sb.WriteString(fmt.Sprintf("  - Arrivals Buffered: %d\n", eventsByType[simulation.EventTypeArrival]))
	sb.WriteString(fmt.Sprintf("  - Dispatched: %d\n", eventsByType[simulation.EventTypeDispatch]))
	sb.WriteString(fmt.Sprintf("  - Completed: %d\n", eventsByType[simulation.EventTypeCompletion]))
	sb.WriteString(fmt.Sprintf("  - Dropped: %d\n", eventsByType[simulation.EventTypeDrop]))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Packages: %d (served %d, dropped %d)\n", summary.Packages, summary.Served, summary.Dropped))
	if summary.Packages > 0 {
		sb.WriteString(fmt.Sprintf("Drop Rate: %.2f%%\n", 100*float64(summary.Dropped)/float64(summary.Packages)))
	}
	sb.WriteString(fmt.Sprintf("Mean Wait: %s\n", FormatTime(summary.MeanWait)))
	sb.WriteString(fmt.Sprintf("Max Wait: %s\n", FormatTime(summary.MaxWait)))
	sb.WriteString(fmt.Sprintf("Makespan: %s\n", FormatTime(summary.Makespan)))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateWarnings generates a list of dropped packages
func (g *Generator) GenerateWarnings(drops []simulation.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Warnings\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	if len(drops) == 0 {
		sb.WriteString("No warnings!\n")
		return sb.String()
	}

	sorted := make([]simulation.Event, len(drops))
	copy(sorted, drops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for _, drop := range sorted {
		sb.WriteString(fmt.Sprintf("[%s] package #%d dropped, buffer full at depth %d\n",
			FormatTime(drop.Time), drop.Index, drop.QueueDepth))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total Warnings: %d\n", len(drops)))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateDetailedTimeline generates a detailed timeline of events
func (g *Generator) GenerateDetailedTimeline(events []simulation.Event, limit int) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Detailed Timeline")
	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf(" (showing first %d events)", limit))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	displayCount := len(events)
	if limit > 0 && limit < displayCount {
		displayCount = limit
	}

	for i := 0; i < displayCount; i++ {
		event := events[i]

		typeIcon := " "
		switch event.Type {
		case simulation.EventTypeArrival:
			typeIcon = "+"
		case simulation.EventTypeDispatch:
			typeIcon = ">"
		case simulation.EventTypeCompletion:
			typeIcon = "-"
		case simulation.EventTypeDrop:
			typeIcon = "!"
		}

		sb.WriteString(fmt.Sprintf("[%12s] %s [%d] package #%d %s\n",
			FormatTime(event.Time),
			typeIcon,
			event.QueueDepth,
			event.Index,
			event.Type))
	}

	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf("\n... and %d more events\n", len(events)-limit))
	}

	sb.WriteString("\n")

	return sb.String()
}

// FormatTime formats a simulated time value without trailing zeros
func FormatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
