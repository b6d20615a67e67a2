// Package steps binds Gherkin step text to the Audit, product and user
// clients. Every scenario gets its own world: fresh clients, a fresh token
// provider and no shared response state.
package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"golang.org/x/oauth2"

	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/api/products"
	"github.com/sadopc/apiprobe/internal/api/user"
	"github.com/sadopc/apiprobe/internal/auth/token"
	"github.com/sadopc/apiprobe/internal/check"
	"github.com/sadopc/apiprobe/internal/config"
	"github.com/sadopc/apiprobe/internal/feature"
	"github.com/sadopc/apiprobe/internal/protocol"
	httpclient "github.com/sadopc/apiprobe/internal/protocol/http"
	"github.com/sadopc/apiprobe/internal/report"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

// DefaultInsufficientPermissionsToken is the bearer sent by permission-denied
// scenarios.
const DefaultInsufficientPermissionsToken = "insufficient_permissions_token"

// Deps are the run-scoped collaborators shared by all scenarios.
type Deps struct {
	Config    config.Config
	Tracker   *telemetry.Tracker
	Collector *report.Collector

	// InsufficientPermissionsToken defaults to DefaultInsufficientPermissionsToken.
	InsufficientPermissionsToken string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Initializer returns a godog scenario initializer bound to d.
func Initializer(d Deps) func(*godog.ScenarioContext) {
	if d.InsufficientPermissionsToken == "" {
		d.InsufficientPermissionsToken = DefaultInsufficientPermissionsToken
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Collector == nil {
		d.Collector = report.NewCollector()
	}
	return func(sc *godog.ScenarioContext) {
		w := newWorld(d)
		sc.Before(w.before)
		sc.StepContext().After(w.afterStep)
		sc.After(w.after)
		for _, def := range definitions() {
			sc.Step(def.pattern, def.bind(w))
		}
	}
}

type definition struct {
	pattern string
	bind    func(w *world) any
}

func definitions() []definition {
	var defs []definition
	defs = append(defs, auditDefinitions()...)
	defs = append(defs, historyDefinitions()...)
	defs = append(defs, responseDefinitions()...)
	defs = append(defs, productDefinitions()...)
	defs = append(defs, userDefinitions()...)
	return defs
}

// Patterns lists every registered step expression.
func Patterns() []string {
	defs := definitions()
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.pattern
	}
	return out
}

// world is the per-scenario state threaded through step definitions.
type world struct {
	deps   Deps
	logger *slog.Logger

	feature  string
	scenario string

	tokens   oauth2.TokenSource
	httpOpts []httpclient.Option
	audit    *audit.Client
	products *products.Client
	user     *user.Client

	// last is the response captured by the most recent request step.
	last *protocol.Response

	auditRequest  audit.Request
	auditResponse string

	history     []audit.HistoryRecord
	historyErr  error
	historyID   string
	createdByID string
	rangeFrom   string
	rangeTo     string

	catalog    *products.Collection
	product    *products.Product
	searchTerm string
	profile    *user.Profile

	storeEmptied bool
	steps        []report.StepResult
}

func newWorld(d Deps) *world {
	api := d.Config.API
	id := d.Config.Identity

	httpOpts := []httpclient.Option{
		httpclient.WithTimeout(api.Timeout),
		httpclient.WithIdentity(httpclient.Identity{ObjectID: id.ObjectID, Cored: id.Cored, Type: id.Type}),
	}
	if api.ProxyURL != "" {
		httpOpts = append(httpOpts, httpclient.WithProxy(api.ProxyURL, api.NoProxy))
	}
	logger := d.Tracker.Logger()
	if tlsCfg, err := api.TLS.Build(); err != nil {
		logger.Error("ignoring api.tls settings", "error", err)
	} else if tlsCfg != nil {
		httpOpts = append(httpOpts, httpclient.WithTLSConfig(tlsCfg))
	}

	tokenHTTP, err := httpclient.New(httpOpts...).HTTPClient()
	if err != nil {
		logger.Error("token requests fall back to the default transport", "error", err)
	}
	tokens := token.NewProvider(token.Config{
		TokenURL:        api.TokenURL,
		SubscriptionKey: api.SubscriptionKey,
		Timeout:         api.Timeout,
	}, tokenHTTP)

	w := &world{
		deps:     d,
		logger:   logger,
		tokens:   tokens,
		httpOpts: httpOpts,
	}
	w.audit = w.newAuditClient()
	w.products = products.New(api.ProductsURL, d.Tracker, httpOpts...)
	w.user = user.New(api.ResolvedUserURL(), tokens, d.Tracker, httpOpts...)
	return w
}

func (w *world) newAuditClient(opts ...audit.Option) *audit.Client {
	api := w.deps.Config.API
	opts = append([]audit.Option{
		audit.WithTracker(w.deps.Tracker),
		audit.WithHTTPOptions(w.httpOpts...),
	}, opts...)
	return audit.New(audit.Config{
		AuditURL:     api.AuditURL,
		HistoryURL:   api.HistoryURL,
		HistoryIDURL: api.HistoryIDURL,
	}, w.tokens, opts...)
}

// capture stores the response of a request step. A failure that still
// carried a response is logged and swallowed so assertion steps can inspect
// it. A failure without one clears the previous response and fails the step.
func (w *world) capture(op string, resp *protocol.Response, err error) error {
	if err != nil {
		resp = nil
		var apiErr *protocol.APIError
		if errors.As(err, &apiErr) {
			resp = apiErr.Response
		}
	}
	w.last = resp
	if err == nil {
		return nil
	}
	if resp != nil {
		w.logger.Warn("request step failed", "op", op, "status", resp.StatusCode, "error", err)
		return nil
	}
	w.logger.Error("no response captured", "op", op, "error", err)
	var authErr *protocol.AuthError
	if errors.As(err, &authErr) {
		return fmt.Errorf("%s: %s: %w", op, check.MsgTokenNotGenerated, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (w *world) lastResponse() (*protocol.Response, error) {
	if w.last == nil {
		return nil, protocol.ErrNotYetRequested
	}
	return w.last, nil
}

func (w *world) before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	w.feature = featureTitle(sc.Uri)
	w.scenario = sc.Name
	w.deps.Collector.Start(w.feature, w.scenario)
	w.logger.Info("scenario started", "feature", w.feature, "scenario", w.scenario)
	return ctx, nil
}

func (w *world) afterStep(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	res := report.StepResult{Text: st.Text, Status: status.String()}
	if err != nil {
		res.Error = err.Error()
		w.logger.Error("step failed", "step", st.Text, "error", err)
	} else {
		w.logger.Debug("step finished", "step", st.Text, "status", res.Status)
	}
	w.steps = append(w.steps, res)
	return ctx, nil
}

func (w *world) after(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	status := report.StatusPassed
	switch {
	case err == nil:
	case errors.Is(err, godog.ErrPending):
		status = report.StatusPending
	case errors.Is(err, godog.ErrUndefined):
		status = report.StatusUndefined
	default:
		status = report.StatusFailed
	}

	res := report.ScenarioResult{
		Feature:  w.feature,
		Scenario: w.scenario,
		Status:   status,
		Steps:    w.steps,
	}
	if err != nil {
		res.Error = err.Error()
	}
	if w.last != nil {
		res.ResponseStatus = w.last.StatusCode
		res.ContentType = w.last.ContentType
		res.Body = w.last.Body
	}
	res = w.deps.Collector.Finish(res)

	w.deps.Tracker.TrackTestExecution(w.feature, w.scenario, status == report.StatusPassed, res.Duration, res.Error)

	if w.storeEmptied {
		if rerr := w.resetStore(ctx, true); rerr != nil {
			w.logger.Warn("reseeding audit history store failed", "error", rerr)
		}
	}
	return ctx, nil
}

// resetStore empties the backing audit history store through the configured
// admin endpoint. Without one it does nothing.
func (w *world) resetStore(ctx context.Context, reseed bool) error {
	target := w.deps.Config.API.AdminResetURL
	if target == "" {
		w.logger.Info("no admin reset URL configured; assuming the audit history store is empty")
		return nil
	}
	if reseed {
		target += "?reseed=true"
	}

	c := httpclient.New(w.httpOpts...)
	req, err := c.BuildRequest(ctx, http.MethodPost, target, false, "")
	if err != nil {
		return err
	}
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return protocol.NewAPIError("ResetAuditStore", resp)
	}
	return nil
}

var featureTitles sync.Map

// featureTitle returns the Feature title of the file at uri, falling back
// to the file name when it cannot be parsed or has no title.
func featureTitle(uri string) string {
	if v, ok := featureTitles.Load(uri); ok {
		return v.(string)
	}
	title := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
	if f, err := feature.Parse(uri); err == nil && f.Title != "" {
		title = f.Title
	}
	featureTitles.Store(uri, title)
	return title
}
