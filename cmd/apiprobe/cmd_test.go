package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/core/history"
	"github.com/sadopc/apiprobe/internal/steps"
)

var subcommands = []string{"run", "mock", "steps", "history", "validate", "init", "completion", "version", "help"}

func TestGenerateBashCompletion(t *testing.T) {
	output := generateBashCompletion()

	if !strings.Contains(output, "complete -F _apiprobe apiprobe") {
		t.Error("bash completion should register the completion function")
	}
	for _, cmd := range subcommands {
		if !strings.Contains(output, cmd) {
			t.Errorf("bash completion should contain subcommand %q", cmd)
		}
	}
	for _, flag := range []string{"--tags", "--format", "--concurrency", "--mock", "--perf-baseline", "--error-rate"} {
		if !strings.Contains(output, flag) {
			t.Errorf("bash completion should contain flag %q", flag)
		}
	}
}

func TestGenerateZshCompletion(t *testing.T) {
	output := generateZshCompletion()

	if !strings.HasPrefix(output, "#compdef apiprobe") {
		t.Error("zsh completion should start with #compdef")
	}
	for _, cmd := range subcommands {
		if !strings.Contains(output, "'"+cmd+":") {
			t.Errorf("zsh completion should describe subcommand %q", cmd)
		}
	}
	if !strings.Contains(output, "(text json junit pretty progress cucumber events)") {
		t.Error("zsh completion should list output formats")
	}
}

func TestGenerateFishCompletion(t *testing.T) {
	output := generateFishCompletion()

	for _, cmd := range subcommands {
		if !strings.Contains(output, "-a "+cmd+" ") {
			t.Errorf("fish completion should contain subcommand %q", cmd)
		}
	}
	if !strings.Contains(output, "-l perf-threshold") {
		t.Error("fish completion should contain run flags")
	}
}

func TestDisplayPattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`^the response status code should be (\d+)$`, `the response status code should be <n>`},
		{`^the Content-Type header should be "([^"]*)"$`, `the Content-Type header should be "<value>"`},
		{`^I request user data$`, `I request user data`},
	}
	for _, tt := range tests {
		if got := displayPattern(tt.in); got != tt.want {
			t.Errorf("displayPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintSteps(t *testing.T) {
	patterns := steps.Patterns()

	var all bytes.Buffer
	if n := printSteps(&all, patterns, "", 0); n != len(patterns) {
		t.Errorf("expected every pattern listed, got %d of %d", n, len(patterns))
	}

	var buf bytes.Buffer
	n := printSteps(&buf, patterns, "pagination", 3)
	if n == 0 || n > 3 {
		t.Fatalf("expected 1-3 matches, got %d", n)
	}
	if !strings.Contains(buf.String(), "pagination metadata should indicate page") {
		t.Errorf("expected pagination step in matches:\n%s", buf.String())
	}

	if n := printSteps(&bytes.Buffer{}, patterns, "zzzzqqq", 10); n != 0 {
		t.Errorf("expected no matches, got %d", n)
	}
}

func TestUndefinedSteps(t *testing.T) {
	t.Run("bundled features", func(t *testing.T) {
		undefined, err := undefinedSteps("../../features")
		if err != nil {
			t.Fatal(err)
		}
		if len(undefined) != 0 {
			t.Errorf("bundled features have undefined steps:\n%s", strings.Join(undefined, "\n"))
		}
	})

	t.Run("unknown step", func(t *testing.T) {
		dir := t.TempDir()
		content := `Feature: Drafts

  Scenario Outline: Draft
    When I request audit history data with page "<page>" and size "<size>"
    Then the response status code should be <status>
    And the moon should be made of cheese

    Examples:
      | page | size | status |
      | 1    | 5    | 200    |
`
		path := filepath.Join(dir, "draft.feature")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		undefined, err := undefinedSteps(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(undefined) != 1 {
			t.Fatalf("expected 1 undefined step, got %v", undefined)
		}
		if !strings.HasSuffix(undefined[0], "draft.feature:6: the moon should be made of cheese") {
			t.Errorf("unexpected entry %q", undefined[0])
		}
	})

	t.Run("step arguments are not steps", func(t *testing.T) {
		dir := t.TempDir()
		content := `Feature: Payloads

  Scenario: Submit
    Given a valid createdBy id
    When I send the audit data request
      """
      And this line is payload, not a step
      """
    Then the response status code should be 200
      | note           |
      | * not a step   |
`
		if err := os.WriteFile(filepath.Join(dir, "x.feature"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		undefined, err := undefinedSteps(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(undefined) != 0 {
			t.Errorf("doc strings and tables were read as steps: %v", undefined)
		}
	})

	t.Run("invalid gherkin", func(t *testing.T) {
		dir := t.TempDir()
		content := "Feature: Broken\n  Scenario: A\n    Given a valid createdBy id\n  stray text\n"
		if err := os.WriteFile(filepath.Join(dir, "broken.feature"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := undefinedSteps(dir); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := undefinedSteps(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error for missing path")
		}
	})
}

func TestStarterConfig(t *testing.T) {
	data, err := starterConfig("http://localhost:9000/")
	if err != nil {
		t.Fatal(err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("starter config is not valid YAML: %v", err)
	}
	if cfg.API.TokenURL != "http://localhost:9000/gettoken" {
		t.Errorf("unexpected token URL %q", cfg.API.TokenURL)
	}
	if cfg.API.AdminResetURL != "http://localhost:9000/admin/reset" {
		t.Errorf("unexpected admin reset URL %q", cfg.API.AdminResetURL)
	}
	if cfg.API.SubscriptionKey != "${APIPROBE_API_SUBSCRIPTION_KEY}" {
		t.Errorf("subscription key should come from the environment, got %q", cfg.API.SubscriptionKey)
	}
	if cfg.Identity.Type != "TeamTest" {
		t.Errorf("identity defaults missing: %+v", cfg.Identity)
	}
}

func TestPrintHistory(t *testing.T) {
	now := time.Now()

	var buf bytes.Buffer
	printRuns(&buf, nil)
	printScenarios(&buf, nil)
	printRequests(&buf, nil)
	for _, s := range []string{"No runs recorded", "No scenarios recorded", "No requests recorded"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("expected %q in:\n%s", s, buf.String())
		}
	}

	buf.Reset()
	printRuns(&buf, []history.RunSummary{{RunID: "run-1", Started: now, Scenarios: 3, Passed: 2, Failed: 1, Duration: 1500 * time.Millisecond}})
	if !strings.Contains(buf.String(), "run-1") || !strings.Contains(buf.String(), "1.5s") {
		t.Errorf("unexpected runs output:\n%s", buf.String())
	}

	buf.Reset()
	printScenarios(&buf, []history.ScenarioEntry{
		{Feature: "Audit History", Scenario: "List", Passed: true, Timestamp: now},
		{Feature: "Audit History", Scenario: "By id", Error: "Expected status code 200 but received 404", Timestamp: now},
	})
	out := buf.String()
	if !strings.Contains(out, "PASS") || !strings.Contains(out, "FAIL") || !strings.Contains(out, "received 404") {
		t.Errorf("unexpected scenarios output:\n%s", out)
	}

	buf.Reset()
	printRequests(&buf, []history.RequestEntry{{API: "ListAuditHistory", Method: "GET", StatusCode: 200, Duration: 12 * time.Millisecond}})
	if !strings.Contains(buf.String(), "ListAuditHistory") || !strings.Contains(buf.String(), "12ms") {
		t.Errorf("unexpected requests output:\n%s", buf.String())
	}
}

func TestRunSuiteReturnsCodeAfterClosingHistory(t *testing.T) {
	dir := t.TempDir()
	featurePath := filepath.Join(dir, "history.feature")
	content := "Feature: History\n\n  Scenario: List\n    When I request audit history data\n    Then the response status code should be 200\n"
	if err := os.WriteFile(featurePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "history.db")
	cfg, err := yaml.Marshal(map[string]any{
		"logging":   map[string]any{"level": "error"},
		"run":       map[string]any{"features": []string{featurePath}},
		"telemetry": map[string]any{"enabled": true, "history_db": dbPath},
	})
	if err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "apiprobe.yaml")
	if err := os.WriteFile(cfgPath, cfg, 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := runSuite([]string{
		"--config", cfgPath,
		"--mock",
		"--perf-baseline", filepath.Join(dir, "missing.json"),
	}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2; stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "Error loading perf baseline") {
		t.Errorf("unexpected stderr:\n%s", stderr.String())
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.Runs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Scenarios != 1 || runs[0].Passed != 1 {
		t.Errorf("recorded runs = %+v, want one passing scenario", runs)
	}
}

func TestRunSuiteBadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runSuite([]string{"--no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if code := runSuite([]string{"--help"}, &stdout, &stderr); code != 0 {
		t.Errorf("help exit code = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), "Usage: apiprobe run") {
		t.Errorf("usage not printed:\n%s", stderr.String())
	}
}

func TestRunHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddScenario(history.ScenarioEntry{RunID: "run-7", Feature: "Audit History", Scenario: "List", Passed: true, Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := runHistory([]string{"--db", dbPath, "requests"}, &stdout, &stderr); code != 2 {
		t.Errorf("requests without a run id: exit code = %d, want 2", code)
	}
	if code := runHistory([]string{"--db", dbPath, "runs"}, &stdout, &stderr); code != 0 {
		t.Fatalf("runs: exit code = %d; stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "run-7") {
		t.Errorf("runs output missing run id:\n%s", stdout.String())
	}
	if code := runHistory([]string{"--db", dbPath, "bogus"}, &stdout, &stderr); code != 2 {
		t.Errorf("unknown subcommand: exit code = %d, want 2", code)
	}
}
