package history

import (
	"testing"
	"time"
)

func TestStore(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	now := time.Now()
	id1, err := store.AddScenario(ScenarioEntry{
		RunID:     "run-1",
		Feature:   "Audit History",
		Scenario:  "Retrieve audit history",
		Passed:    true,
		Duration:  150 * time.Millisecond,
		Timestamp: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	if id1 == 0 {
		t.Error("expected non-zero ID")
	}

	id2, err := store.AddScenario(ScenarioEntry{
		RunID:     "run-1",
		Feature:   "Products",
		Scenario:  "Search products",
		Passed:    false,
		Duration:  200 * time.Millisecond,
		Error:     "Expected status code 200 but got 500",
		Timestamp: now,
	})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := store.Scenarios(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Most recent first
	if entries[0].ID != id2 {
		t.Errorf("expected most recent first, got id %d", entries[0].ID)
	}
	if entries[0].Passed || entries[0].Error == "" {
		t.Errorf("expected failed entry with error, got %+v", entries[0])
	}

	results, err := store.SearchScenarios("audit")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 search result, got %d", len(results))
	}

	results, err = store.SearchScenarios("nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	count, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 entries after clear, got %d", count)
	}
}

func TestStore_Requests(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	store.AddRequest(RequestEntry{RunID: "a", API: "AuditApi", Method: "POST", StatusCode: 200, Success: true, Timestamp: time.Now()})
	store.AddRequest(RequestEntry{RunID: "a", API: "AuditHistoryApi", Method: "GET", StatusCode: 404, Timestamp: time.Now()})
	store.AddRequest(RequestEntry{RunID: "b", API: "ProductsApi", Method: "GET", StatusCode: 200, Success: true, Timestamp: time.Now()})

	entries, err := store.Requests("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 requests for run a, got %d", len(entries))
	}
	if entries[0].API != "AuditApi" || !entries[0].Success {
		t.Errorf("unexpected first request %+v", entries[0])
	}
	if entries[1].StatusCode != 404 || entries[1].Success {
		t.Errorf("unexpected second request %+v", entries[1])
	}
}

func TestStore_Runs(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	now := time.Now()
	store.AddScenario(ScenarioEntry{RunID: "old", Feature: "f", Scenario: "s1", Passed: true, Duration: time.Second, Timestamp: now.Add(-time.Hour)})
	store.AddScenario(ScenarioEntry{RunID: "new", Feature: "f", Scenario: "s1", Passed: true, Duration: time.Second, Timestamp: now})
	store.AddScenario(ScenarioEntry{RunID: "new", Feature: "f", Scenario: "s2", Passed: false, Duration: 2 * time.Second, Timestamp: now})

	runs, err := store.Runs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "new" {
		t.Errorf("expected newest run first, got %s", runs[0].RunID)
	}
	if runs[0].Scenarios != 2 || runs[0].Passed != 1 || runs[0].Failed != 1 {
		t.Errorf("unexpected summary %+v", runs[0])
	}
	if runs[0].Duration != 3*time.Second {
		t.Errorf("expected 3s total, got %v", runs[0].Duration)
	}
}

func TestStore_DurationRoundTrip(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	dur := 123456789 * time.Nanosecond
	_, err = store.AddScenario(ScenarioEntry{
		RunID:     "r",
		Feature:   "f",
		Scenario:  "s",
		Duration:  dur,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := store.Scenarios(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Duration != dur {
		t.Errorf("expected duration %v, got %v", dur, entries[0].Duration)
	}
}
