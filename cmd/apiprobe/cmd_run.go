package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/core/history"
	"github.com/sadopc/apiprobe/internal/mock"
	"github.com/sadopc/apiprobe/internal/runner"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

func runCmd() {
	os.Exit(runSuite(os.Args[2:], os.Stdout, os.Stderr))
}

// runSuite runs the suite and returns the process exit code. Returning
// instead of exiting lets deferred cleanup close the history store.
func runSuite(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFlag := fs.String("config", "", "Path to apiprobe.yaml (default: ./apiprobe.yaml or ~/.config/apiprobe)")
	tagsFlag := fs.String("tags", "", "Tag expression, e.g. \"@smoke && ~@slow\"")
	formatFlag := fs.String("format", "", "Output format: text, json, junit, or a godog format (pretty, progress, cucumber, events)")
	concurrencyFlag := fs.Int("concurrency", 0, "Scenarios to run in parallel")
	verboseFlag := fs.Bool("verbose", false, "Show response bodies of failed scenarios")
	strictFlag := fs.Bool("strict", false, "Fail on pending or undefined steps")
	mockFlag := fs.Bool("mock", false, "Run against an in-process mock service instead of the configured hosts")
	perfSaveFlag := fs.String("perf-save", "", "Save scenario timings as a performance baseline file")
	perfBaselineFlag := fs.String("perf-baseline", "", "Compare timings against a baseline file")
	perfThresholdFlag := fs.Float64("perf-threshold", 20.0, "Regression threshold percentage")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: apiprobe run [feature paths...] [flags]\n\n")
		fmt.Fprintf(stderr, "Run Gherkin feature files. Paths default to run.features from the config.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  apiprobe run\n")
		fmt.Fprintf(stderr, "  apiprobe run features/audit_history.feature --verbose\n")
		fmt.Fprintf(stderr, "  apiprobe run --mock --tags @smoke\n")
		fmt.Fprintf(stderr, "  apiprobe run --format junit > results.xml\n")
		fmt.Fprintf(stderr, "\nExit codes:\n")
		fmt.Fprintf(stderr, "  0  All scenarios passed\n")
		fmt.Fprintf(stderr, "  1  One or more scenarios failed, or a performance regression was found\n")
		fmt.Fprintf(stderr, "  2  The suite could not be run\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if fs.NArg() > 0 {
		cfg.Run.Features = fs.Args()
	}
	if *tagsFlag != "" {
		cfg.Run.Tags = *tagsFlag
	}
	if *formatFlag != "" {
		cfg.Run.Format = *formatFlag
	}
	if *concurrencyFlag > 0 {
		cfg.Run.Concurrency = *concurrencyFlag
	}
	cfg.Run.Verbose = cfg.Run.Verbose || *verboseFlag
	cfg.Run.Strict = cfg.Run.Strict || *strictFlag

	logger := telemetry.NewLogger(cfg.Logging.Format, cfg.Logging.Level, stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if *mockFlag {
		base, err := startMock(ctx, cfg.API.SubscriptionKey)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		cfg.API = cfg.API.Rebase(base)
		cfg.API.AdminResetURL = base + "/admin/reset"
		logger.Info("running against in-process mock", "base_url", base)
	}

	trackerOpts := []telemetry.TrackerOption{telemetry.WithRunID(uuid.NewString())}
	if cfg.Telemetry.Enabled {
		dbPath := cfg.Telemetry.HistoryDB
		if dbPath == "" {
			dbPath = config.DefaultHistoryPath()
		}
		store, err := history.NewStore(dbPath)
		if err != nil {
			logger.Warn("run history disabled", "path", dbPath, "error", err)
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing run history", "path", dbPath, "error", err)
				}
			}()
			trackerOpts = append(trackerOpts, telemetry.WithSink(store))
		}
	}
	tracker := telemetry.NewTracker(logger, trackerOpts...)

	var godogOut io.Writer = io.Discard
	if isGodogFormat(cfg.Run.Format) {
		godogOut = stdout
	}
	r, err := runner.New(*cfg, tracker, runner.WithGodogOutput(godogOut))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	res := r.Run(ctx)
	if err := r.Print(stdout, res); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return 2
	}

	if err := tracker.WriteMetrics(cfg.Telemetry.MetricsFile); err != nil {
		logger.Warn("metrics not written", "error", err)
	}

	if *perfSaveFlag != "" {
		if err := runner.SavePerfBaseline(*perfSaveFlag, res.Scenarios); err != nil {
			fmt.Fprintf(stderr, "Error saving perf baseline: %v\n", err)
			return 2
		}
		fmt.Fprintf(stderr, "Performance baseline saved to %s\n", *perfSaveFlag)
	}

	code := runner.ExitCode(res)
	if *perfBaselineFlag != "" {
		baseline, err := runner.LoadPerfBaseline(*perfBaselineFlag)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading perf baseline: %v\n", err)
			return 2
		}
		comparisons := runner.ComparePerfBaseline(res.Scenarios, baseline, *perfThresholdFlag)
		fmt.Fprintln(stdout)
		runner.PrintPerfComparison(stdout, comparisons, *perfThresholdFlag)
		if runner.HasRegressions(comparisons) && code == 0 {
			code = 1
		}
	}

	return code
}

// startMock serves a fresh mock on a loopback port until ctx is done and
// returns its base URL.
func startMock(ctx context.Context, subscriptionKey string) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("starting mock: %w", err)
	}
	srv := mock.New(mock.WithSubscriptionKey(subscriptionKey))
	go func() {
		if err := srv.Serve(ctx, ln); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "mock server: %v\n", err)
		}
	}()
	return "http://" + ln.Addr().String(), nil
}

func isGodogFormat(format string) bool {
	for _, f := range runner.GodogFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

func fatalf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}
