package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/feature"
	"github.com/sadopc/apiprobe/internal/steps"
)

func validateCmd() {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	configFlag := flags.String("config", "", "Path to apiprobe.yaml")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apiprobe validate [feature paths...] [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Load and validate the configuration, then check that every step in the\n")
		fmt.Fprintf(os.Stderr, "feature files matches a step definition.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL config: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK   config")

	paths := cfg.Run.Features
	if flags.NArg() > 0 {
		paths = flags.Args()
	}

	hasErrors := false
	for _, path := range paths {
		undefined, err := undefinedSteps(path)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
			hasErrors = true
		case len(undefined) > 0:
			fmt.Fprintf(os.Stderr, "FAIL %s: undefined steps:\n  - %s\n", path, strings.Join(undefined, "\n  - "))
			hasErrors = true
		default:
			fmt.Printf("OK   %s\n", path)
		}
	}

	if hasErrors {
		os.Exit(1)
	}
}

// undefinedSteps parses path (a .feature file or a directory of them) and
// returns "file:line: text" for every step no definition matches. Outline
// steps are checked once per examples row.
func undefinedSteps(path string) ([]string, error) {
	var compiled []*regexp.Regexp
	for _, p := range steps.Patterns() {
		compiled = append(compiled, regexp.MustCompile(p))
	}

	var undefined []string
	err := feature.Walk(path, func(f *feature.File) error {
		for _, st := range f.Steps {
			if !matchesAny(compiled, st.Text) {
				undefined = append(undefined, fmt.Sprintf("%s:%d: %s", f.Path, st.Line, st.Text))
			}
		}
		return nil
	})
	return undefined, err
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
