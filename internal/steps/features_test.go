package steps

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/cucumber/godog"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/mock"
	"github.com/sadopc/apiprobe/internal/report"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

// mockConfig points the suite at an in-process mock service.
func mockConfig(t *testing.T) (config.Config, *mock.Server) {
	t.Helper()
	srv := mock.New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.API = cfg.API.Rebase(ts.URL)
	cfg.API.AdminResetURL = ts.URL + "/admin/reset"
	cfg.Run.FixturesDir = "../../features/testdata"
	return cfg, srv
}

func TestFeatures(t *testing.T) {
	cfg, srv := mockConfig(t)
	collector := report.NewCollector()
	tracker := telemetry.NewTracker(telemetry.Discard())

	var out bytes.Buffer
	suite := godog.TestSuite{
		Name:                "apiprobe",
		ScenarioInitializer: Initializer(Deps{Config: cfg, Tracker: tracker, Collector: collector}),
		Options: &godog.Options{
			Format:   "progress",
			Output:   &out,
			Paths:    []string{"../../features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if status := suite.Run(); status != 0 {
		t.Fatalf("feature suite exited with %d:\n%s", status, out.String())
	}

	summary := collector.Summary()
	if summary.Failed != 0 || summary.Total == 0 {
		t.Errorf("unexpected summary %+v", summary)
	}
	for _, r := range collector.Results() {
		if r.Feature == "" || len(r.Steps) == 0 {
			t.Errorf("incomplete result %+v", r)
		}
	}

	n, err := testutil.GatherAndCount(tracker.Registry(), "apiprobe_scenarios_total")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("expected scenario metrics to be recorded")
	}

	// The empty-store scenario reseeds on the way out.
	if got := len(srv.Store().Records()); got != len(mock.SeedRecords()) {
		t.Errorf("got %d records after the run, want the default seed", got)
	}
}
