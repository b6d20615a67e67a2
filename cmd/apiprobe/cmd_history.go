package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/core/history"
)

func historyCmd() {
	os.Exit(runHistory(os.Args[2:], os.Stdout, os.Stderr))
}

// runHistory prints recorded telemetry and returns the exit code.
func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbFlag := fs.String("db", "", "Path to the history database (default: telemetry.history_db or ~/.config/apiprobe/history.db)")
	limitFlag := fs.Int("limit", 20, "Maximum number of rows")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: apiprobe history [runs|scenarios|search <query>|requests <run-id>|clear] [flags]\n\n")
		fmt.Fprintf(stderr, "Show telemetry recorded by previous runs.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	path := *dbFlag
	if path == "" {
		if cfg, err := config.Load(""); err == nil && cfg.Telemetry.HistoryDB != "" {
			path = cfg.Telemetry.HistoryDB
		} else {
			path = config.DefaultHistoryPath()
		}
	}

	store, err := history.NewStore(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	sub := "runs"
	if fs.NArg() > 0 {
		sub = fs.Arg(0)
	}

	switch sub {
	case "runs":
		runs, err := store.Runs(*limitFlag)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		printRuns(stdout, runs)
	case "scenarios":
		entries, err := store.Scenarios(*limitFlag, 0)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		printScenarios(stdout, entries)
	case "search":
		if fs.NArg() < 2 {
			fmt.Fprintf(stderr, "Error: search needs a query\n")
			return 2
		}
		entries, err := store.SearchScenarios(strings.Join(fs.Args()[1:], " "))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		printScenarios(stdout, entries)
	case "requests":
		if fs.NArg() < 2 {
			fmt.Fprintf(stderr, "Error: requests needs a run id\n")
			return 2
		}
		entries, err := store.Requests(fs.Arg(1))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		printRequests(stdout, entries)
	case "clear":
		if err := store.Clear(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "History cleared")
	default:
		fmt.Fprintf(stderr, "Error: unknown history command %q\n\n", sub)
		fs.Usage()
		return 2
	}
	return 0
}

func printRuns(w io.Writer, runs []history.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %3d scenarios  %3d passed  %3d failed  %s\n",
			r.RunID, humanize.Time(r.Started), r.Scenarios, r.Passed, r.Failed, r.Duration.Round(time.Millisecond))
	}
}

func printScenarios(w io.Writer, entries []history.ScenarioEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scenarios recorded")
		return
	}
	for _, e := range entries {
		status := "PASS"
		if !e.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %-16s  %s / %s (%s)\n", status, humanize.Time(e.Timestamp), e.Feature, e.Scenario, e.Duration.Round(time.Millisecond))
		if e.Error != "" {
			fmt.Fprintf(w, "      %s\n", e.Error)
		}
	}
}

func printRequests(w io.Writer, entries []history.RequestEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No requests recorded for this run")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-6s %-24s %3d  %s\n", e.Method, e.API, e.StatusCode, e.Duration.Round(time.Millisecond))
	}
}
