package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type textStyles struct {
	pass  lipgloss.Style
	fail  lipgloss.Style
	other lipgloss.Style
	muted lipgloss.Style
	bold  lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		pass:  r.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		other: r.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		muted: r.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		bold:  r.NewStyle().Bold(true),
	}
}

// PrintText outputs results in human-readable form, grouped by feature.
func PrintText(w io.Writer, results []ScenarioResult, summary Summary, verbose bool) {
	st := newTextStyles(w)

	current := ""
	for _, r := range sortedByFeature(results) {
		if r.Feature != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			current = r.Feature
			fmt.Fprintln(w, st.bold.Render("Feature: "+r.Feature))
		}

		icon := st.pass.Render("✓")
		switch r.Status {
		case StatusPassed:
		case StatusFailed:
			icon = st.fail.Render("✗")
		default:
			icon = st.other.Render("-")
		}
		fmt.Fprintf(w, "  %s %-60s %s\n", icon, truncate(r.Scenario, 60), st.muted.Render(formatDuration(r.Duration)))

		if r.Status == StatusPassed {
			continue
		}
		for _, step := range r.Steps {
			if step.Status == StatusPassed {
				continue
			}
			fmt.Fprintf(w, "    └ %s [%s]\n", step.Text, step.Status)
			if step.Error != "" {
				fmt.Fprintf(w, "      %s\n", st.fail.Render(step.Error))
			}
		}
		if len(r.Steps) == 0 && r.Error != "" {
			fmt.Fprintf(w, "    └ Error: %s\n", st.fail.Render(r.Error))
		}

		if verbose && len(r.Body) > 0 {
			fmt.Fprintf(w, "    --- Response %d (%s) ---\n", r.ResponseStatus, humanize.IBytes(uint64(len(r.Body))))
			for _, line := range strings.Split(HighlightBody(r.Body, r.ContentType, false), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
			fmt.Fprintln(w, "    ---------------------")
		}
	}

	fmt.Fprintln(w)
	line := fmt.Sprintf("Scenarios: %d total, %s, %s", summary.Total,
		st.pass.Render(fmt.Sprintf("%d passed", summary.Passed)),
		st.fail.Render(fmt.Sprintf("%d failed", summary.Failed)))
	if summary.Other > 0 {
		line += ", " + st.other.Render(fmt.Sprintf("%d pending or skipped", summary.Other))
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(summary.Duration))
}

type jsonReport struct {
	Summary   jsonSummary      `json:"summary"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

type jsonSummary struct {
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	Other      int     `json:"other"`
	DurationMS float64 `json:"duration_ms"`
}

// PrintJSON outputs results as JSON.
func PrintJSON(w io.Writer, results []ScenarioResult, summary Summary) error {
	if results == nil {
		results = []ScenarioResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Summary: jsonSummary{
			Total:      summary.Total,
			Passed:     summary.Passed,
			Failed:     summary.Failed,
			Other:      summary.Other,
			DurationMS: float64(summary.Duration) / float64(time.Millisecond),
		},
		Scenarios: results,
	})
}

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     float64         `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// PrintJUnit outputs results as JUnit XML, one suite per feature.
func PrintJUnit(w io.Writer, results []ScenarioResult) error {
	suites := junitTestSuites{}
	index := map[string]int{}

	for _, r := range sortedByFeature(results) {
		i, ok := index[r.Feature]
		if !ok {
			i = len(suites.Suites)
			index[r.Feature] = i
			suites.Suites = append(suites.Suites, junitTestSuite{Name: r.Feature})
		}
		suite := &suites.Suites[i]
		suite.Tests++
		suite.Time += r.Duration.Seconds()

		tc := junitTestCase{
			Name:      r.Scenario,
			ClassName: r.Feature,
			Time:      r.Duration.Seconds(),
		}
		switch r.Status {
		case StatusPassed:
		case StatusFailed:
			suite.Failures++
			tc.Failure = &junitFailure{
				Message: r.Error,
				Type:    "AssertionFailure",
				Content: failureDetail(r),
			}
		default:
			suite.Skipped++
			tc.Skipped = &junitSkipped{Message: r.Status}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	fmt.Fprint(w, xml.Header)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suites); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func failureDetail(r ScenarioResult) string {
	var b strings.Builder
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "%s [%s]", s.Text, s.Status)
		if s.Error != "" {
			fmt.Fprintf(&b, ": %s", s.Error)
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return r.Error
	}
	return b.String()
}

// sortedByFeature groups results by feature, keeping completion order within
// a feature.
func sortedByFeature(results []ScenarioResult) []ScenarioResult {
	out := make([]ScenarioResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
