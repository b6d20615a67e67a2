package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/apiprobe/internal/config"
)

func initCmd() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	outputFlag := fs.String("output", "apiprobe.yaml", "Output file path")
	baseURLFlag := fs.String("base-url", "", "Point every endpoint at this host, keeping default paths")
	withEnvFlag := fs.Bool("with-env", false, "Also create a .env file for the subscription key")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apiprobe init [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Write a starter apiprobe.yaml with the default settings.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apiprobe init\n")
		fmt.Fprintf(os.Stderr, "  apiprobe init --base-url http://localhost:8080 --with-env\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if _, err := os.Stat(*outputFlag); err == nil {
		fatalf(1, "Error: file %q already exists\n", *outputFlag)
	}

	data, err := starterConfig(*baseURLFlag)
	if err != nil {
		fatalf(1, "Error: %v\n", err)
	}
	if err := os.WriteFile(*outputFlag, data, 0644); err != nil {
		fatalf(1, "Error: %v\n", err)
	}
	fmt.Printf("Created %s\n", *outputFlag)

	if *withEnvFlag {
		if _, err := os.Stat(".env"); err == nil {
			fmt.Fprintf(os.Stderr, "Warning: .env already exists, skipping\n")
			return
		}
		env := config.EnvPrefix + "_API_SUBSCRIPTION_KEY=" + config.DefaultConfig().API.SubscriptionKey + "\n"
		if err := os.WriteFile(".env", []byte(env), 0600); err != nil {
			fatalf(1, "Error creating .env: %v\n", err)
		}
		fmt.Println("Created .env")
	}
}

// starterConfig renders the default configuration, optionally rebased onto
// baseURL. The subscription key is left to the environment.
func starterConfig(baseURL string) ([]byte, error) {
	cfg := config.DefaultConfig()
	if baseURL != "" {
		baseURL = strings.TrimRight(baseURL, "/")
		cfg.API = cfg.API.Rebase(baseURL)
		cfg.API.AdminResetURL = baseURL + "/admin/reset"
	}
	cfg.API.SubscriptionKey = "${" + config.EnvPrefix + "_API_SUBSCRIPTION_KEY}"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return append([]byte("# apiprobe configuration\n"), data...), nil
}
