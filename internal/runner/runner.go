// Package runner executes the Gherkin feature suite headlessly and renders
// the outcome.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/cucumber/godog"

	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/report"
	"github.com/sadopc/apiprobe/internal/steps"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

// Report formats rendered by apiprobe itself. Any other format name is handed
// to godog.
var ReportFormats = []string{"text", "json", "junit"}

// GodogFormats are godog's built-in formatters, passed through unchanged.
var GodogFormats = []string{"pretty", "progress", "cucumber", "events"}

// godog.TestSuite.Run status codes.
const (
	statusPassed      = 0
	statusFailed      = 1
	statusOptionError = 2
)

// Result is the outcome of one suite run.
type Result struct {
	Status    int
	Scenarios []report.ScenarioResult
	Summary   report.Summary
}

// Runner drives a godog suite with the configured step definitions.
type Runner struct {
	cfg     config.Config
	tracker *telemetry.Tracker
	logger  *slog.Logger
	// godogOut receives godog's own formatter output.
	godogOut io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithGodogOutput sends godog formatter output to w.
func WithGodogOutput(w io.Writer) Option {
	return func(r *Runner) { r.godogOut = w }
}

// New creates a runner. tracker may be nil.
func New(cfg config.Config, tracker *telemetry.Tracker, opts ...Option) (*Runner, error) {
	if len(cfg.Run.Features) == 0 {
		return nil, fmt.Errorf("at least one feature path is required")
	}
	for _, p := range cfg.Run.Features {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("feature path %q: %w", p, err)
		}
	}
	if cfg.Run.Format == "" {
		cfg.Run.Format = "text"
	}
	if !slices.Contains(ReportFormats, cfg.Run.Format) && !slices.Contains(GodogFormats, cfg.Run.Format) {
		return nil, fmt.Errorf("invalid output format %q (must be one of text, json, junit, pretty, progress, cucumber, events)", cfg.Run.Format)
	}
	if cfg.Run.Concurrency < 1 {
		cfg.Run.Concurrency = 1
	}
	if _, err := cfg.API.TLS.Build(); err != nil {
		return nil, fmt.Errorf("api.tls: %w", err)
	}

	r := &Runner{
		cfg:      cfg,
		tracker:  tracker,
		logger:   tracker.Logger(),
		godogOut: io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the suite and collects scenario results.
func (r *Runner) Run(ctx context.Context) Result {
	collector := report.NewCollector()

	format := "progress"
	if slices.Contains(GodogFormats, r.cfg.Run.Format) {
		format = r.cfg.Run.Format
	}

	suite := godog.TestSuite{
		Name: "apiprobe",
		TestSuiteInitializer: func(sc *godog.TestSuiteContext) {
			sc.BeforeSuite(func() {
				r.logger.Info("test run started",
					"run_id", r.tracker.RunID(),
					"features", r.cfg.Run.Features,
					"tags", r.cfg.Run.Tags,
					"concurrency", r.cfg.Run.Concurrency)
			})
			sc.AfterSuite(func() {
				s := collector.Summary()
				r.logger.Info("test run finished",
					"scenarios", s.Total, "passed", s.Passed, "failed", s.Failed,
					"duration_ms", s.Duration.Milliseconds())
			})
		},
		ScenarioInitializer: steps.Initializer(steps.Deps{
			Config:    r.cfg,
			Tracker:   r.tracker,
			Collector: collector,
		}),
		Options: &godog.Options{
			Format:         format,
			Output:         r.godogOut,
			Paths:          r.cfg.Run.Features,
			Tags:           r.cfg.Run.Tags,
			Concurrency:    r.cfg.Run.Concurrency,
			Strict:         r.cfg.Run.Strict,
			NoColors:       true,
			DefaultContext: ctx,
		},
	}

	status := suite.Run()
	results := collector.Results()
	return Result{
		Status:    status,
		Scenarios: results,
		Summary:   collector.Summary(),
	}
}

// Print renders res in the configured report format. Godog formats were
// already written during the run.
func (r *Runner) Print(w io.Writer, res Result) error {
	switch r.cfg.Run.Format {
	case "json":
		return report.PrintJSON(w, res.Scenarios, res.Summary)
	case "junit":
		return report.PrintJUnit(w, res.Scenarios)
	case "text":
		report.PrintText(w, res.Scenarios, res.Summary, r.cfg.Run.Verbose)
	}
	return nil
}

// ExitCode maps a run to a process exit code.
// 0 = all scenarios passed, 1 = scenario failures, 2 = the suite could not run.
func ExitCode(res Result) int {
	switch {
	case res.Status == statusOptionError:
		return 2
	case res.Status == statusFailed || res.Summary.Failed > 0:
		return 1
	default:
		return 0
	}
}
