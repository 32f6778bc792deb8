package simulation

import (
	"fmt"

	"github.com/sherine-k/packetsim/pkg/queue"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Step is the kind of transition the event loop takes next
type Step int

const (
	StepDone Step = iota
	StepDispatch
	StepArrival
	StepCompletion
)

func (s Step) String() string {
	switch s {
	case StepDone:
		return "done"
	case StepDispatch:
		return "dispatch"
	case StepArrival:
		return "arrival"
	case StepCompletion:
		return "completion"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Option configures a Simulator
type Option func(*Simulator)

// WithLogger sets the logger used for per-event debug output and the run summary
func WithLogger(lg *zap.Logger) Option {
	return func(s *Simulator) {
		if lg != nil {
			s.lg = lg
		}
	}
}

// WithTrace makes the simulator keep every event and time point for reporting
func WithTrace(enabled bool) Option {
	return func(s *Simulator) {
		s.trace = enabled
	}
}

// WithObserver registers an observer that sees every event
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Simulator replays arrivals through one server with a bounded waiting buffer.
//
// The package in service keeps its buffer slot until it completes, so a buffer of
// size n holds the package being served plus n-1 waiting ones.
type Simulator struct {
	packages   []Package
	bufferSize int

	records []Record
	buffer  *queue.Queue[int]

	clock       float64
	busy        bool
	releaseTime float64
	next        int

	lg        *zap.Logger
	debug     bool
	trace     bool
	observers []Observer

	events     []Event
	timePoints []TimePoint
}

// NewSimulator creates a new simulator. Packages are taken in the given order,
// which is assumed to be non-decreasing in arrival time.
func NewSimulator(packages []Package, bufferSize int, opts ...Option) *Simulator {
	s := &Simulator{
		packages:   packages,
		bufferSize: bufferSize,
		buffer:     queue.New[int](bufferSize),
		lg:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs a one-shot simulation and returns the start times in input order
func Process(packages []Package, bufferSize int) []float64 {
	return NewSimulator(packages, bufferSize).Run()
}

// Run executes the simulation and returns, for every package in input order,
// its service start time or Dropped. Running again yields the same result.
func (s *Simulator) Run() []float64 {
	s.reset()

	for {
		switch step := s.nextStep(); step {
		case StepDispatch:
			s.dispatch()
		case StepArrival:
			s.arrive()
		case StepCompletion:
			s.complete()
		case StepDone:
			s.lg.Info("simulation finished",
				zap.Int("packages", len(s.packages)),
				zap.Int("buffer-size", s.bufferSize),
				zap.Int("dropped", s.Summary().Dropped),
				zap.Float64("clock", s.clock),
			)
			return s.startTimes()
		default:
			panic(fmt.Sprintf("simulation: unknown step %v", step))
		}
	}
}

// nextStep picks the next transition. Dispatch always wins since it takes no
// time. An arrival beats the running service only when strictly earlier than
// its release time; on a tie the completion is handled first.
func (s *Simulator) nextStep() Step {
	idle := !s.busy
	pending := s.next < len(s.packages)

	switch {
	case idle && !s.buffer.IsEmpty():
		return StepDispatch
	case pending && (idle || s.buffer.IsEmpty() || s.packages[s.next].Arrival < s.releaseTime):
		return StepArrival
	case s.busy:
		return StepCompletion
	default:
		return StepDone
	}
}

func (s *Simulator) reset() {
	s.records = make([]Record, len(s.packages))
	for i, p := range s.packages {
		s.records[i] = Record{Package: p}
	}
	s.buffer.Reset()
	s.clock = 0
	s.busy = false
	s.releaseTime = 0
	s.next = 0
	s.events = nil
	s.timePoints = nil
	s.debug = s.lg.Core().Enabled(zapcore.DebugLevel)
}

func (s *Simulator) arrive() {
	idx := s.next
	s.next++
	s.clock = s.packages[idx].Arrival

	if !s.buffer.Put(idx) {
		s.records[idx].StartTime = Dropped
		s.emit(EventTypeDrop, idx)
		return
	}
	s.emit(EventTypeArrival, idx)
}

func (s *Simulator) dispatch() {
	idx, _ := s.buffer.Peek()
	rec := &s.records[idx]

	rec.StartTime = s.clock
	rec.Served = true
	s.releaseTime = max(rec.Arrival, s.clock) + rec.Duration
	rec.Finish = s.releaseTime
	s.busy = true

	s.emit(EventTypeDispatch, idx)
}

func (s *Simulator) complete() {
	s.clock = s.releaseTime
	idx, ok := s.buffer.Get()
	if !ok {
		panic("simulation: completion with an empty buffer")
	}
	s.busy = false

	s.emit(EventTypeCompletion, idx)
}

func (s *Simulator) emit(typ EventType, idx int) {
	if !s.trace && !s.debug && len(s.observers) == 0 {
		return
	}

	e := Event{
		Time:       s.clock,
		Type:       typ,
		Index:      idx,
		QueueDepth: s.buffer.Len(),
		Busy:       s.busy,
	}

	if s.debug {
		s.lg.Debug("event",
			zap.String("type", string(typ)),
			zap.Int("package", idx),
			zap.Float64("time", e.Time),
			zap.Int("queue-depth", e.QueueDepth),
		)
	}

	for _, o := range s.observers {
		o.Observe(e, s.records[idx])
	}

	if s.trace {
		s.events = append(s.events, e)
		s.timePoints = append(s.timePoints, TimePoint{
			Time:       e.Time,
			QueueDepth: e.QueueDepth,
			Busy:       e.Busy,
		})
	}
}

func (s *Simulator) startTimes() []float64 {
	out := make([]float64, len(s.records))
	for i, r := range s.records {
		out[i] = r.StartTime
	}
	return out
}

// Records returns the processed packages in input order
func (s *Simulator) Records() []Record {
	return s.records
}

// Events returns all traced events
func (s *Simulator) Events() []Event {
	return s.events
}

// TimePoints returns the queue state after every traced event
func (s *Simulator) TimePoints() []TimePoint {
	return s.timePoints
}

// Drops returns all traced drop events
func (s *Simulator) Drops() []Event {
	drops := []Event{}
	for _, e := range s.events {
		if e.IsWarning() {
			drops = append(drops, e)
		}
	}
	return drops
}

// BufferSize returns the configured buffer size
func (s *Simulator) BufferSize() int {
	return s.bufferSize
}

// Summary aggregates the outcome of the last run
type Summary struct {
	Packages int
	Served   int
	Dropped  int
	MeanWait float64
	MaxWait  float64
	Makespan float64
}

// Summary computes aggregate figures over the records of the last run
func (s *Simulator) Summary() Summary {
	sum := Summary{Packages: len(s.records)}
	var totalWait float64
	for _, r := range s.records {
		if !r.Served {
			sum.Dropped++
			continue
		}
		sum.Served++
		w := r.Wait()
		totalWait += w
		sum.MaxWait = max(sum.MaxWait, w)
		sum.Makespan = max(sum.Makespan, r.Finish)
	}
	if sum.Served > 0 {
		sum.MeanWait = totalWait / float64(sum.Served)
	}
	return sum
}
