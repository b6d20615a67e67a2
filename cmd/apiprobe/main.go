package main

import (
	"fmt"
	"os"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "run":
		runCmd()
	case "mock":
		mockCmd()
	case "steps":
		stepsCmd()
	case "history":
		historyCmd()
	case "validate":
		validateCmd()
	case "init":
		initCmd()
	case "completion":
		completionCmd()
	case "version", "--version":
		fmt.Printf("apiprobe %s (%s) built %s\n", version, commit, date)
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `apiprobe - Gherkin-driven API test suite for the Audit service

Usage:
  apiprobe <command> [args] [flags]

Commands:
  run         Run feature files against the configured endpoints
  mock        Start the in-memory mock of the token, Audit, user and product APIs
  steps       List or fuzzy-search the available step definitions
  history     Show recorded runs and scenario outcomes
  validate    Check configuration and that every feature step has a definition
  init        Write a starter apiprobe.yaml
  completion  Generate shell completion scripts (bash, zsh, fish)
  version     Print version information
  help        Show this help message

Run 'apiprobe <command> --help' for more information about a command.
`)
}
