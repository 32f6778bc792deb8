package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sherine-k/packetsim/pkg/chart"
	"github.com/sherine-k/packetsim/pkg/config"
	"github.com/sherine-k/packetsim/pkg/metrics"
	"github.com/sherine-k/packetsim/pkg/simulation"
	"github.com/sherine-k/packetsim/pkg/workload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	inputFile     string
	scenarioFile  string
	showChart     bool
	showSummary   bool
	showTimeline  bool
	timelineLimit int
	metricsOut    string
	verbose       bool
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "packetsim",
		Short: "Single server network buffer simulator",
		Long: `A CLI tool that simulates a single server processing network packages
through a bounded FIFO buffer.

Input is read from stdin (or --input) in the form:

  bufferSize packageCount
  arrival duration
  ...

For every package, in input order, the time it started being processed is
printed on its own line, or -1 when it was dropped because the buffer was full.
A YAML scenario with cron driven sources can be used instead with --scenario.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inputFile, "input", "i", "", "Read packages from file instead of stdin")
	cmd.Flags().StringVar(&opts.scenarioFile, "scenario", "", "Path to YAML scenario file")
	cmd.Flags().BoolVarP(&opts.showChart, "chart", "c", false, "Show buffer occupancy chart")
	cmd.Flags().BoolVarP(&opts.showSummary, "summary", "s", false, "Show event summary and drop warnings")
	cmd.Flags().BoolVarP(&opts.showTimeline, "timeline", "t", false, "Show detailed timeline of events")
	cmd.Flags().IntVarP(&opts.timelineLimit, "timeline-limit", "l", 50, "Limit number of timeline events to display")
	cmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "Write Prometheus text metrics to this file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every simulation event to stderr")
	cmd.MarkFlagsMutuallyExclusive("input", "scenario")

	return cmd
}

func runSimulation(cmd *cobra.Command, opts *options) error {
	lg, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer lg.Sync() //nolint:errcheck

	packages, bufferSize, err := loadPackages(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}
	lg.Info("loaded packages",
		zap.Int("packages", len(packages)),
		zap.Int("buffer-size", bufferSize),
	)

	simOpts := []simulation.Option{
		simulation.WithLogger(lg),
		simulation.WithTrace(opts.showChart || opts.showSummary || opts.showTimeline),
	}
	var collector *metrics.Collector
	if opts.metricsOut != "" {
		collector = metrics.NewCollector(bufferSize)
		simOpts = append(simOpts, simulation.WithObserver(collector))
	}

	sim := simulation.NewSimulator(packages, bufferSize, simOpts...)
	startTimes := sim.Run()

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, st := range startTimes {
		w.WriteString(chart.FormatTime(st))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	report := cmd.ErrOrStderr()
	chartGen := chart.NewGenerator()

	if opts.showChart {
		fmt.Fprintln(report, chartGen.GenerateQueueChart(sim.TimePoints(), sim.Events(), bufferSize))
	}

	if opts.showSummary {
		fmt.Fprintln(report, chartGen.GenerateEventSummary(sim.Summary(), sim.Events()))
		fmt.Fprintln(report, chartGen.GenerateWarnings(sim.Drops()))
	}

	if opts.showTimeline {
		fmt.Fprintln(report, chartGen.GenerateDetailedTimeline(sim.Events(), opts.timelineLimit))
	}

	if collector != nil {
		if err := collector.WriteTextfile(opts.metricsOut); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		lg.Info("wrote metrics", zap.String("path", opts.metricsOut))
	}

	return nil
}

func loadPackages(stdin io.Reader, opts *options) ([]simulation.Package, int, error) {
	if opts.scenarioFile != "" {
		sc, err := config.LoadScenario(opts.scenarioFile)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load scenario: %w", err)
		}
		packages, err := workload.Generate(sc)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to generate workload: %w", err)
		}
		return packages, sc.BufferSize, nil
	}

	in := stdin
	if opts.inputFile != "" {
		f, err := os.Open(opts.inputFile)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	parsed, err := config.ParseInput(in)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse input: %w", err)
	}
	return parsed.Packages, parsed.BufferSize, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
