// Package report collects scenario outcomes during a run and renders them as
// text, JSON or JUnit XML.
package report

import (
	"sync"
	"time"
)

// Scenario statuses.
const (
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
	StatusUndefined = "undefined"
	StatusSkipped   = "skipped"
)

// StepResult is the outcome of one Gherkin step.
type StepResult struct {
	Text   string `json:"text"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Feature  string        `json:"feature"`
	Scenario string        `json:"scenario"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Steps    []StepResult  `json:"steps,omitempty"`

	// Last captured response, shown in verbose output for failures.
	ResponseStatus int    `json:"response_status,omitempty"`
	ContentType    string `json:"-"`
	Body           []byte `json:"-"`
}

// Passed reports whether the scenario passed.
func (r ScenarioResult) Passed() bool { return r.Status == StatusPassed }

// Summary aggregates a run.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Other    int
	Duration time.Duration
}

// Key identifies a scenario across concurrent runs.
func Key(feature, scenario string) string {
	return feature + "/" + scenario
}

// Collector accumulates results. It is safe for concurrent use.
type Collector struct {
	starts  sync.Map // Key -> time.Time
	mu      sync.Mutex
	results []ScenarioResult
	began   time.Time
	now     func() time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	c := &Collector{now: time.Now}
	c.began = c.now()
	return c
}

// Start records the start time of a scenario.
func (c *Collector) Start(feature, scenario string) {
	c.starts.Store(Key(feature, scenario), c.now())
}

// Finish records a result. Duration is measured from Start when it was
// called; otherwise r.Duration is kept.
func (c *Collector) Finish(r ScenarioResult) ScenarioResult {
	if v, ok := c.starts.LoadAndDelete(Key(r.Feature, r.Scenario)); ok {
		r.Duration = c.now().Sub(v.(time.Time))
	}
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	return r
}

// Results returns a copy of the results in completion order.
func (c *Collector) Results() []ScenarioResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ScenarioResult, len(c.results))
	copy(out, c.results)
	return out
}

// Summary aggregates the collected results.
func (c *Collector) Summary() Summary {
	return Summarize(c.Results(), c.now().Sub(c.began))
}

// Summarize aggregates results with the given wall time.
func Summarize(results []ScenarioResult, wall time.Duration) Summary {
	s := Summary{Total: len(results), Duration: wall}
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		default:
			s.Other++
		}
	}
	return s
}
