package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/apiprobe/internal/report"
)

// PerfBaseline holds scenario timing baselines.
type PerfBaseline struct {
	Version   string                   `json:"version"`
	CreatedAt time.Time                `json:"created_at"`
	Entries   map[string]PerfBaseEntry `json:"entries"` // keyed by report.Key(feature, scenario)
}

// PerfBaseEntry holds the baseline timing for a single scenario.
type PerfBaseEntry struct {
	Feature  string        `json:"feature"`
	Scenario string        `json:"scenario"`
	Duration time.Duration `json:"duration_ns"`
	DurHuman string        `json:"duration"`
}

// PerfComparison holds a comparison between current and baseline timings.
type PerfComparison struct {
	Feature      string        `json:"feature"`
	Scenario     string        `json:"scenario"`
	Current      time.Duration `json:"current_ns"`
	Baseline     time.Duration `json:"baseline_ns"`
	Delta        time.Duration `json:"delta_ns"`
	DeltaPercent float64       `json:"delta_percent"`
	Regressed    bool          `json:"regressed"`
	IsNew        bool          `json:"is_new"`
}

// SavePerfBaseline writes passed scenario timings as a baseline file.
func SavePerfBaseline(path string, results []report.ScenarioResult) error {
	baseline := PerfBaseline{
		Version:   "1",
		CreatedAt: time.Now(),
		Entries:   make(map[string]PerfBaseEntry),
	}

	for _, r := range results {
		if !r.Passed() {
			continue
		}
		baseline.Entries[report.Key(r.Feature, r.Scenario)] = PerfBaseEntry{
			Feature:  r.Feature,
			Scenario: r.Scenario,
			Duration: r.Duration,
			DurHuman: r.Duration.Round(time.Millisecond).String(),
		}
	}

	data, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling baseline: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	return nil
}

// LoadPerfBaseline reads a performance baseline file.
func LoadPerfBaseline(path string) (*PerfBaseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}

	var baseline PerfBaseline
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("parsing baseline: %w", err)
	}
	return &baseline, nil
}

// ComparePerfBaseline compares passed scenarios against a baseline.
// threshold is the percentage increase that counts as a regression (e.g. 20.0 = 20%).
func ComparePerfBaseline(results []report.ScenarioResult, baseline *PerfBaseline, threshold float64) []PerfComparison {
	var comparisons []PerfComparison

	for _, r := range results {
		if !r.Passed() {
			continue
		}

		comp := PerfComparison{
			Feature:  r.Feature,
			Scenario: r.Scenario,
			Current:  r.Duration,
		}

		entry, ok := baseline.Entries[report.Key(r.Feature, r.Scenario)]
		if !ok {
			comp.IsNew = true
			comparisons = append(comparisons, comp)
			continue
		}

		comp.Baseline = entry.Duration
		comp.Delta = r.Duration - entry.Duration
		if entry.Duration > 0 {
			comp.DeltaPercent = float64(comp.Delta) / float64(entry.Duration) * 100
		}
		if comp.DeltaPercent > threshold {
			comp.Regressed = true
		}

		comparisons = append(comparisons, comp)
	}
	return comparisons
}

// HasRegressions returns true if any comparisons show regressions.
func HasRegressions(comparisons []PerfComparison) bool {
	for _, c := range comparisons {
		if c.Regressed {
			return true
		}
	}
	return false
}

// PrintPerfComparison renders a comparison table.
func PrintPerfComparison(w io.Writer, comparisons []PerfComparison, threshold float64) {
	rr := lipgloss.NewRenderer(w)
	bad := rr.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	good := rr.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	muted := rr.NewStyle().Foreground(lipgloss.Color("#6c7086"))

	fmt.Fprintf(w, "Performance Comparison (threshold %.0f%%)\n", threshold)
	regressions := 0
	for _, c := range comparisons {
		name := report.Key(c.Feature, c.Scenario)
		switch {
		case c.IsNew:
			fmt.Fprintf(w, "  %-60s %10s  %s\n", name, c.Current.Round(time.Millisecond), muted.Render("new"))
		case c.Regressed:
			regressions++
			fmt.Fprintf(w, "  %-60s %10s  %s\n", name, c.Current.Round(time.Millisecond),
				bad.Render(fmt.Sprintf("+%.1f%% regression (was %s)", c.DeltaPercent, c.Baseline.Round(time.Millisecond))))
		case c.DeltaPercent < -threshold:
			fmt.Fprintf(w, "  %-60s %10s  %s\n", name, c.Current.Round(time.Millisecond),
				good.Render(fmt.Sprintf("%.1f%% improvement", c.DeltaPercent)))
		default:
			fmt.Fprintf(w, "  %-60s %10s  %+.1f%%\n", name, c.Current.Round(time.Millisecond), c.DeltaPercent)
		}
	}
	fmt.Fprintf(w, "%d scenarios compared, %d regressions\n", len(comparisons), regressions)
}
