package simulation

// Dropped marks a package that never reached the server
const Dropped = -1.0

// Package is a single arrival: when it shows up and how long it occupies the server
type Package struct {
	Arrival  float64 `yaml:"arrival" json:"arrival"`
	Duration float64 `yaml:"duration" json:"duration"`
}

// Record is a package after the simulation has run
type Record struct {
	Package
	StartTime float64
	Finish    float64
	Served    bool
}

// Wait returns how long a served package sat in the buffer
func (r Record) Wait() float64 {
	if !r.Served {
		return 0
	}
	return r.StartTime - r.Arrival
}

// EventType defines the type of event in the simulation
type EventType string

const (
	EventTypeArrival    EventType = "arrival"
	EventTypeDrop       EventType = "drop"
	EventTypeDispatch   EventType = "dispatch"
	EventTypeCompletion EventType = "completion"
)

// Event represents a point-in-time event in the simulation
type Event struct {
	Time       float64
	Type       EventType
	Index      int
	QueueDepth int
	Busy       bool
}

// IsWarning reports whether the event describes lost work
func (e Event) IsWarning() bool {
	return e.Type == EventTypeDrop
}

// TimePoint represents the state at a specific point in time
type TimePoint struct {
	Time       float64
	QueueDepth int
	Busy       bool
}

// Observer receives every event as the simulation produces it
type Observer interface {
	Observe(e Event, r Record)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(e Event, r Record)

func (f ObserverFunc) Observe(e Event, r Record) { f(e, r) }
