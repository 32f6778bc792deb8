package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sherine-k/packetsim/pkg/simulation"
	"gopkg.in/yaml.v3"
)

var (
	ErrMalformedHeader  = errors.New("malformed header")
	ErrMalformedPackage = errors.New("malformed package line")
	ErrNegativeValue    = errors.New("negative value")
	ErrPackageCount     = errors.New("package count mismatch")
)

// ParseInput reads the line format: a "bufferSize packageCount" header followed
// by packageCount lines of "arrival duration". Blank lines are ignored and
// reading stops once packageCount packages have been read.
func ParseInput(r io.Reader) (*Input, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	nextFields := func() ([]string, bool) {
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, true
			}
		}
		return nil, false
	}

	header, ok := nextFields()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return nil, fmt.Errorf("%w: empty input", ErrMalformedHeader)
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("%w: line %d: want 2 fields, got %d", ErrMalformedHeader, line, len(header))
	}
	bufferSize, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("%w: buffer size: %w", ErrMalformedHeader, err)
	}
	count, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("%w: package count: %w", ErrMalformedHeader, err)
	}
	if bufferSize < 0 || count < 0 {
		return nil, fmt.Errorf("%w: line %d: buffer size and package count must be >= 0", ErrNegativeValue, line)
	}

	in := &Input{
		BufferSize: bufferSize,
		Packages:   make([]simulation.Package, 0, count),
	}
	for len(in.Packages) < count {
		fields, ok := nextFields()
		if !ok {
			break
		}
		p, err := parsePackage(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		in.Packages = append(in.Packages, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(in.Packages) != count {
		return nil, fmt.Errorf("%w: header announces %d packages, got %d", ErrPackageCount, count, len(in.Packages))
	}

	return in, nil
}

func parsePackage(fields []string) (simulation.Package, error) {
	if len(fields) != 2 {
		return simulation.Package{}, fmt.Errorf("%w: want 2 fields, got %d", ErrMalformedPackage, len(fields))
	}
	arrival, err := parseTime(fields[0])
	if err != nil {
		return simulation.Package{}, fmt.Errorf("arrival: %w", err)
	}
	duration, err := parseTime(fields[1])
	if err != nil {
		return simulation.Package{}, fmt.Errorf("duration: %w", err)
	}
	return simulation.Package{Arrival: arrival, Duration: duration}, nil
}

func parseTime(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedPackage, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrMalformedPackage, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNegativeValue, s)
	}
	return v, nil
}

// LoadScenario loads and parses the scenario file
func LoadScenario(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a YAML scenario
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Validate checks the scenario and fills in defaults
func (s *Scenario) Validate() error {
	if s.BufferSize < 0 {
		return fmt.Errorf("bufferSize must not be negative")
	}

	if len(s.Packages) == 0 && len(s.Sources) == 0 {
		return fmt.Errorf("at least one package or source must be defined")
	}

	for i, p := range s.Packages {
		if p.Arrival < 0 || p.Duration < 0 {
			return fmt.Errorf("package %d: %w", i, ErrNegativeValue)
		}
	}

	if len(s.Sources) > 0 && s.Horizon <= 0 {
		return fmt.Errorf("horizon must be greater than 0 when sources are defined")
	}

	for i := range s.Sources {
		src := &s.Sources[i]
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}

		if src.CronSchedule == "" {
			return fmt.Errorf("source %s: cronSchedule is required", src.Name)
		}

		if src.Duration < 0 {
			return fmt.Errorf("source %s: duration must not be negative", src.Name)
		}

		if src.Burst < 0 {
			return fmt.Errorf("source %s: burst must not be negative", src.Name)
		}
		if src.Burst == 0 {
			src.Burst = 1
		}
	}

	return nil
}
