package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func pkgs(pairs ...[2]float64) []Package {
	out := make([]Package, len(pairs))
	for i, p := range pairs {
		out[i] = Package{Arrival: p[0], Duration: p[1]}
	}
	return out
}

func TestProcessScenarios(t *testing.T) {
	tests := []struct {
		name       string
		bufferSize int
		packages   []Package
		want       []float64
	}{
		{
			name:       "no packages",
			bufferSize: 1,
			packages:   nil,
			want:       []float64{},
		},
		{
			name:       "single zero duration package",
			bufferSize: 1,
			packages:   pkgs([2]float64{0, 0}),
			want:       []float64{0},
		},
		{
			name:       "simultaneous arrival overflows single slot",
			bufferSize: 1,
			packages:   pkgs([2]float64{0, 1}, [2]float64{0, 1}),
			want:       []float64{0, -1},
		},
		{
			name:       "arrival at release time is served",
			bufferSize: 1,
			packages:   pkgs([2]float64{0, 1}, [2]float64{1, 1}),
			want:       []float64{0, 1},
		},
		{
			name:       "drop while busy then serve",
			bufferSize: 1,
			packages:   pkgs([2]float64{0, 2}, [2]float64{1, 1}, [2]float64{2, 1}),
			want:       []float64{0, -1, 2},
		},
		{
			name:       "large buffer queues everything",
			bufferSize: 10,
			packages: pkgs(
				[2]float64{4, 4}, [2]float64{6, 4}, [2]float64{6, 2}, [2]float64{12, 3},
				[2]float64{13, 0}, [2]float64{15, 2}, [2]float64{15, 2}, [2]float64{15, 2},
			),
			want: []float64{4, 8, 12, 14, 17, 17, 19, 21},
		},
		{
			name:       "zero duration chain at a single timestamp",
			bufferSize: 1,
			packages: pkgs(
				[2]float64{999999, 1}, [2]float64{1000000, 0}, [2]float64{1000000, 1},
				[2]float64{1000000, 0}, [2]float64{1000000, 0},
			),
			want: []float64{999999, 1000000, 1000000, -1, -1},
		},
		{
			name:       "zero buffer drops everything",
			bufferSize: 0,
			packages:   pkgs([2]float64{0, 0}, [2]float64{0, 0}),
			want:       []float64{-1, -1},
		},
		{
			name:       "fractional times",
			bufferSize: 3,
			packages:   pkgs([2]float64{0.5, 0.25}, [2]float64{0.6, 1.5}, [2]float64{0.7, 1}),
			want:       []float64{0.5, 0.75, 2.25},
		},
		{
			name:       "idle gap between packages",
			bufferSize: 1,
			packages:   pkgs([2]float64{0, 1}, [2]float64{5, 1}),
			want:       []float64{0, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Process(tt.packages, tt.bufferSize)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextStepPriority(t *testing.T) {
	s := NewSimulator(pkgs([2]float64{0, 2}, [2]float64{2, 1}, [2]float64{3, 1}), 2)
	s.reset()

	require.Equal(t, StepArrival, s.nextStep(), "idle with empty buffer takes the arrival")
	s.arrive()

	require.Equal(t, StepDispatch, s.nextStep(), "dispatch wins over pending arrival")
	s.dispatch()
	require.Equal(t, 2.0, s.releaseTime)

	require.Equal(t, StepCompletion, s.nextStep(), "tie with release time completes first")
	s.complete()
	require.Equal(t, 2.0, s.clock)

	require.Equal(t, StepArrival, s.nextStep())
	s.arrive()
	require.Equal(t, StepDispatch, s.nextStep())
	s.dispatch()

	require.Equal(t, StepCompletion, s.nextStep(), "arrival at 3 is not earlier than release 3")
	s.complete()
	require.Equal(t, StepArrival, s.nextStep())
	s.arrive()
	require.Equal(t, StepDispatch, s.nextStep())
	s.dispatch()
	require.Equal(t, StepCompletion, s.nextStep())
	s.complete()

	require.Equal(t, StepDone, s.nextStep())
}

func TestNextStepEarlierArrivalBeatsCompletion(t *testing.T) {
	s := NewSimulator(pkgs([2]float64{0, 2}, [2]float64{1.999, 1}), 2)
	s.reset()

	s.arrive()
	s.dispatch()
	assert.Equal(t, StepArrival, s.nextStep())
}

func TestRunIsIdempotent(t *testing.T) {
	packages := workload(5000, 7)
	s := NewSimulator(packages, 16)

	first := s.Run()
	second := s.Run()
	require.Equal(t, first, second)
	require.Equal(t, first, Process(packages, 16))
}

func TestServedPackageProperties(t *testing.T) {
	packages := workload(2000, 13)
	s := NewSimulator(packages, 4)
	out := s.Run()
	require.Len(t, out, len(packages))

	var prev *Record
	for i, r := range s.Records() {
		r := r
		if !r.Served {
			assert.Equal(t, Dropped, out[i])
			continue
		}
		assert.Equal(t, r.StartTime, out[i])
		assert.GreaterOrEqual(t, r.StartTime, r.Arrival, "package %d starts before it arrives", i)
		if prev != nil {
			assert.LessOrEqual(t, prev.Finish, r.StartTime, "package %d overlaps the previous one", i)
		}
		prev = &r
	}
}

func TestTraceRecordsEvents(t *testing.T) {
	s := NewSimulator(pkgs([2]float64{0, 1}, [2]float64{0, 1}), 1, WithTrace(true))
	s.Run()

	types := []EventType{}
	for _, e := range s.Events() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{
		EventTypeArrival,
		EventTypeDispatch,
		EventTypeDrop,
		EventTypeCompletion,
	}, types)
	assert.Len(t, s.TimePoints(), 4)

	drops := s.Drops()
	require.Len(t, drops, 1)
	assert.Equal(t, 1, drops[0].Index)
	assert.Equal(t, 0.0, drops[0].Time)
}

func TestTraceDisabledByDefault(t *testing.T) {
	s := NewSimulator(pkgs([2]float64{0, 1}), 1)
	s.Run()
	assert.Empty(t, s.Events())
	assert.Empty(t, s.TimePoints())
}

func TestObserverSeesEveryEvent(t *testing.T) {
	counts := map[EventType]int{}
	obs := ObserverFunc(func(e Event, r Record) {
		counts[e.Type]++
		if e.Type == EventTypeDispatch {
			assert.True(t, r.Served)
		}
	})

	s := NewSimulator(pkgs([2]float64{0, 2}, [2]float64{1, 1}, [2]float64{2, 1}), 1, WithObserver(obs))
	s.Run()

	assert.Equal(t, 3, counts[EventTypeArrival]+counts[EventTypeDrop])
	assert.Equal(t, 1, counts[EventTypeDrop])
	assert.Equal(t, 2, counts[EventTypeDispatch])
	assert.Equal(t, 2, counts[EventTypeCompletion])
}

func TestLoggerDoesNotChangeResult(t *testing.T) {
	packages := workload(200, 3)
	want := Process(packages, 3)
	got := NewSimulator(packages, 3, WithLogger(zaptest.NewLogger(t))).Run()
	assert.Equal(t, want, got)
}

func TestSummary(t *testing.T) {
	s := NewSimulator(pkgs([2]float64{0, 2}, [2]float64{1, 1}, [2]float64{2, 1}, [2]float64{2, 1}), 2)
	out := s.Run()
	require.Equal(t, []float64{0, 2, 3, -1}, out)

	sum := s.Summary()
	assert.Equal(t, 4, sum.Packages)
	assert.Equal(t, 3, sum.Served)
	assert.Equal(t, 1, sum.Dropped)
	assert.Equal(t, 1.0, sum.MaxWait)
	assert.InDelta(t, 2.0/3.0, sum.MeanWait, 1e-9)
	assert.Equal(t, 4.0, sum.Makespan)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "dispatch", StepDispatch.String())
	assert.Equal(t, "Step(9)", Step(9).String())
}

func TestLargeInputRunsQuickly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}
	packages := make([]Package, 0, 100000)
	for i := 1; i < 100000; i++ {
		packages = append(packages, Package{Arrival: float64(i), Duration: float64(i % 1000)})
	}

	start := time.Now()
	out := Process(packages, 100000)
	require.Len(t, out, len(packages))
	assert.Less(t, time.Since(start), 3*time.Second)
}

// workload builds a deterministic bursty arrival sequence
func workload(n int, seed int) []Package {
	out := make([]Package, n)
	t := 0.0
	x := seed
	for i := range out {
		x = (x*1103515245 + 12345) & 0x7fffffff
		if x%3 != 0 {
			t += float64(x % 5)
		}
		out[i] = Package{Arrival: t, Duration: float64(x % 7)}
	}
	return out
}
