package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sadopc/apiprobe/internal/core/history"
)

// Sink persists telemetry events. *history.Store satisfies it.
type Sink interface {
	AddRequest(e history.RequestEntry) (int64, error)
	AddScenario(e history.ScenarioEntry) (int64, error)
}

// Tracker receives API call and scenario events. A nil *Tracker ignores all
// events so clients can be built without telemetry.
type Tracker struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
	sink     Sink
	runID    string
	now      func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithSink persists events to s.
func WithSink(s Sink) TrackerOption {
	return func(t *Tracker) { t.sink = s }
}

// WithRunID tags persisted events with id.
func WithRunID(id string) TrackerOption {
	return func(t *Tracker) { t.runID = id }
}

// NewTracker creates a tracker logging through logger.
func NewTracker(logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = Discard()
	}
	reg := prometheus.NewRegistry()
	t := &Tracker{
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Logger returns the tracker's logger, or a discarding logger for a nil tracker.
func (t *Tracker) Logger() *slog.Logger {
	if t == nil {
		return Discard()
	}
	return t.logger
}

// RunID returns the identifier attached to persisted events.
func (t *Tracker) RunID() string {
	if t == nil {
		return ""
	}
	return t.runID
}

// Registry exposes the run's metrics registry.
func (t *Tracker) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// TrackAPIRequest records one API call.
func (t *Tracker) TrackAPIRequest(api, method string, status int, d time.Duration, success bool) {
	if t == nil {
		return
	}
	t.metrics.apiRequests.WithLabelValues(api, method, strconv.Itoa(status)).Inc()
	t.metrics.apiDuration.WithLabelValues(api, method).Observe(d.Seconds())

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	t.logger.Log(context.Background(), level, "api request",
		"api", api, "method", method, "status", status,
		"duration_ms", d.Milliseconds(), "success", success)

	if t.sink != nil {
		_, err := t.sink.AddRequest(history.RequestEntry{
			RunID:      t.runID,
			API:        api,
			Method:     method,
			StatusCode: status,
			Duration:   d,
			Success:    success,
			Timestamp:  t.now(),
		})
		if err != nil {
			t.logger.Error("persisting api request", "error", err)
		}
	}
}

// TrackTestExecution records the outcome of one scenario.
func (t *Tracker) TrackTestExecution(feature, scenario string, passed bool, d time.Duration, errMsg string) {
	if t == nil {
		return
	}
	result := "passed"
	if !passed {
		result = "failed"
	}
	t.metrics.scenarios.WithLabelValues(result).Inc()
	t.metrics.scenarioDuration.Observe(d.Seconds())

	if passed {
		t.logger.Info("scenario passed", "feature", feature, "scenario", scenario, "duration_ms", d.Milliseconds())
	} else {
		t.logger.Error("scenario failed", "feature", feature, "scenario", scenario,
			"duration_ms", d.Milliseconds(), "error", errMsg)
	}

	if t.sink != nil {
		_, err := t.sink.AddScenario(history.ScenarioEntry{
			RunID:     t.runID,
			Feature:   feature,
			Scenario:  scenario,
			Passed:    passed,
			Duration:  d,
			Error:     errMsg,
			Timestamp: t.now(),
		})
		if err != nil {
			t.logger.Error("persisting scenario", "error", err)
		}
	}
}

// WriteMetrics writes the registry in the Prometheus text format to path.
func (t *Tracker) WriteMetrics(path string) error {
	if t == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
