package history

import "time"

// RequestEntry is one API call made during a run.
type RequestEntry struct {
	ID         int64
	RunID      string
	API        string
	Method     string
	StatusCode int
	Duration   time.Duration
	Success    bool
	Timestamp  time.Time
}

// ScenarioEntry is the outcome of one scenario.
type ScenarioEntry struct {
	ID        int64
	RunID     string
	Feature   string
	Scenario  string
	Passed    bool
	Duration  time.Duration
	Error     string
	Timestamp time.Time
}

// RunSummary aggregates the scenarios of a single run.
type RunSummary struct {
	RunID     string
	Started   time.Time
	Scenarios int
	Passed    int
	Failed    int
	Duration  time.Duration
}
