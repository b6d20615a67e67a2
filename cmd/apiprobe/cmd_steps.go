package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/apiprobe/internal/steps"
)

func stepsCmd() {
	fs := flag.NewFlagSet("steps", flag.ExitOnError)
	limitFlag := fs.Int("limit", 10, "Maximum number of matches to show for a query")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apiprobe steps [query] [flags]\n\n")
		fmt.Fprintf(os.Stderr, "List every step definition, or fuzzy-search them.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  apiprobe steps\n")
		fmt.Fprintf(os.Stderr, "  apiprobe steps pagination\n")
		fmt.Fprintf(os.Stderr, "  apiprobe steps \"status code\"\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	query := strings.Join(fs.Args(), " ")
	if n := printSteps(os.Stdout, steps.Patterns(), query, *limitFlag); n == 0 {
		fmt.Fprintf(os.Stderr, "No steps match %q\n", query)
		os.Exit(1)
	}
}

// printSteps writes the patterns matching query, best match first, and
// returns how many were written. An empty query lists everything.
func printSteps(w io.Writer, patterns []string, query string, limit int) int {
	if query == "" {
		for _, p := range patterns {
			fmt.Fprintln(w, displayPattern(p))
		}
		return len(patterns)
	}

	display := make([]string, len(patterns))
	for i, p := range patterns {
		display[i] = displayPattern(p)
	}
	matches := fuzzy.Find(query, display)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	for _, m := range matches {
		fmt.Fprintln(w, m.Str)
	}
	return len(matches)
}

// displayPattern turns a step regexp into the text a feature author writes.
func displayPattern(p string) string {
	p = strings.TrimPrefix(p, "^")
	p = strings.TrimSuffix(p, "$")
	r := strings.NewReplacer(
		`"([^"]*)"`, `"<value>"`,
		`(\d+)`, `<n>`,
	)
	return r.Replace(p)
}
