package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func sampleResults() []ScenarioResult {
	return []ScenarioResult{
		{Feature: "Products", Scenario: "List products", Status: StatusPassed, Duration: 12 * time.Millisecond},
		{Feature: "Audit History", Scenario: "Filter by createdBy", Status: StatusFailed, Duration: 1500 * time.Millisecond,
			Error: "Expected status code 200 but received 400",
			Steps: []StepResult{
				{Text: "I request audit history data", Status: StatusPassed},
				{Text: "the response status code should be 200", Status: StatusFailed, Error: "Expected status code 200 but received 400"},
			},
			ResponseStatus: 400, ContentType: "application/json", Body: []byte(`{"message":"createdBy must be a valid GUID"}`)},
		{Feature: "Audit History", Scenario: "Pending scenario", Status: StatusPending},
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Start("Audit", "List")
	clock = clock.Add(250 * time.Millisecond)
	got := c.Finish(ScenarioResult{Feature: "Audit", Scenario: "List", Status: StatusPassed})
	if got.Duration != 250*time.Millisecond {
		t.Errorf("got duration %v, want 250ms", got.Duration)
	}

	// Finish without Start keeps the supplied duration.
	got = c.Finish(ScenarioResult{Feature: "Audit", Scenario: "Other", Status: StatusFailed, Duration: time.Second})
	if got.Duration != time.Second {
		t.Errorf("got duration %v, want 1s", got.Duration)
	}

	s := c.Summary()
	if s.Total != 2 || s.Passed != 1 || s.Failed != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("scenario %d", i)
			c.Start("Feature", name)
			c.Finish(ScenarioResult{Feature: "Feature", Scenario: name, Status: StatusPassed})
		}()
	}
	wg.Wait()
	if n := len(c.Results()); n != 50 {
		t.Errorf("got %d results, want 50", n)
	}
}

func TestPrintText(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	PrintText(&buf, results, Summarize(results, 2*time.Second), true)
	out := buf.String()

	for _, want := range []string{
		"Feature: Audit History",
		"Feature: Products",
		"✓ List products",
		"✗ Filter by createdBy",
		"the response status code should be 200 [failed]",
		"--- Response 400 (44 B) ---",
		`"message": "createdBy must be a valid GUID"`,
		"Scenarios: 3 total, 1 passed, 1 failed, 1 pending or skipped",
		"Duration: 2.0s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "I request audit history data [passed]") {
		t.Error("passed steps should not be listed")
	}
	if strings.Index(out, "Audit History") > strings.Index(out, "Products") {
		t.Error("features should be grouped alphabetically")
	}
}

func TestPrintTextQuietOmitsBodies(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	PrintText(&buf, results, Summarize(results, time.Second), false)
	if strings.Contains(buf.String(), "--- Response") {
		t.Error("body should only be printed in verbose mode")
	}
}

func TestPrintJSON(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	if err := PrintJSON(&buf, results, Summarize(results, time.Second)); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Summary struct {
			Total  int `json:"total"`
			Failed int `json:"failed"`
		} `json:"summary"`
		Scenarios []ScenarioResult `json:"scenarios"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Summary.Total != 3 || decoded.Summary.Failed != 1 {
		t.Errorf("unexpected summary %+v", decoded.Summary)
	}
	if len(decoded.Scenarios) != 3 || decoded.Scenarios[1].Error == "" {
		t.Errorf("unexpected scenarios %+v", decoded.Scenarios)
	}
}

func TestPrintJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, nil, Summary{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"scenarios": []`) {
		t.Errorf("expected empty scenarios array, got %s", buf.String())
	}
}

func TestPrintJUnit(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJUnit(&buf, sampleResults()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "<?xml") {
		t.Error("missing XML header")
	}

	var suites junitTestSuites
	if err := xml.Unmarshal(buf.Bytes(), &suites); err != nil {
		t.Fatalf("invalid XML: %v", err)
	}
	if len(suites.Suites) != 2 {
		t.Fatalf("got %d suites, want 2", len(suites.Suites))
	}
	audit := suites.Suites[0]
	if audit.Name != "Audit History" || audit.Tests != 2 || audit.Failures != 1 || audit.Skipped != 1 {
		t.Errorf("unexpected audit suite %+v", audit)
	}
	if audit.Cases[0].Failure == nil || !strings.Contains(audit.Cases[0].Failure.Content, "[failed]") {
		t.Errorf("failure should carry step detail: %+v", audit.Cases[0].Failure)
	}
}

func TestHighlightBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        string
	}{
		{"json content type", `{"a":1}`, "application/json; charset=utf-8", "{\n  \"a\": 1\n}"},
		{"sniffed json", `[1,2]`, "", "[1, 2]"},
		{"plain text", "hello", "text/plain", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighlightBody([]byte(tt.body), tt.contentType, false); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	colored := HighlightBody([]byte(`{"a":1}`), "application/json", true)
	if !strings.Contains(colored, "\x1b[") {
		t.Error("expected ANSI escapes when color is enabled")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{42 * time.Millisecond, "42ms"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
