// Package audit is the client for the Audit service: audit submission and the
// audit history listing and lookup endpoints.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sadopc/apiprobe/internal/protocol"
	httpclient "github.com/sadopc/apiprobe/internal/protocol/http"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

// HistoryIDPlaceholder is replaced with the record id in Config.HistoryIDURL.
const HistoryIDPlaceholder = "{AuditHistoryId}"

// Telemetry API names.
const (
	APISubmit        = "AuditData"
	APIHistoryList   = "AuditHistoryList"
	APIHistoryByID   = "AuditHistoryById"
	APIHistoryNoPerm = "AuditHistoryInsufficientPermissions"
)

// Config holds the Audit service endpoints.
type Config struct {
	AuditURL     string
	HistoryURL   string
	HistoryIDURL string
}

// HistoryFilter narrows a history listing. Empty strings and nil ints are
// left off the query.
type HistoryFilter struct {
	TableDescription string
	CreatedBy        string
	CreatedAtFrom    string
	CreatedAtTo      string
	Page             *int
	Size             *int
	SortBy           string
	SortOrder        string

	// Unauthenticated sends the request without a bearer token.
	Unauthenticated bool
	// Accept overrides the Accept header.
	Accept string
}

// Params renders the filter as query parameters.
func (f HistoryFilter) Params() map[string]string {
	params := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			params[k] = v
		}
	}
	set("tableDescription", f.TableDescription)
	set("createdBy", f.CreatedBy)
	set("createdAtFrom", f.CreatedAtFrom)
	set("createdAtTo", f.CreatedAtTo)
	if f.Page != nil {
		params["page"] = strconv.Itoa(*f.Page)
	}
	if f.Size != nil {
		params["size"] = strconv.Itoa(*f.Size)
	}
	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	return params
}

type options struct {
	tracker      *telemetry.Tracker
	authOverride string
	httpOpts     []httpclient.Option
}

// Option configures a Client.
type Option func(*options)

// WithTracker reports every call to t.
func WithTracker(t *telemetry.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// WithAuthOverride authenticates with a fixed bearer token instead of the
// token provider.
func WithAuthOverride(token string) Option {
	return func(o *options) { o.authOverride = token }
}

// WithHTTPOptions passes options to the underlying HTTP client.
func WithHTTPOptions(opts ...httpclient.Option) Option {
	return func(o *options) { o.httpOpts = append(o.httpOpts, opts...) }
}

// Client calls the Audit service. One Client belongs to one scenario.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	tracker *telemetry.Tracker
	// overridden is set when a fixed token replaces the provider.
	overridden bool
}

// New creates an Audit client authenticating through tokens.
func New(cfg Config, tokens oauth2.TokenSource, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.authOverride != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.authOverride, TokenType: "Bearer"})
	}
	httpOpts := append([]httpclient.Option{}, o.httpOpts...)
	httpOpts = append(httpOpts, httpclient.WithTokenSource(tokens))

	return &Client{
		cfg:        cfg,
		http:       httpclient.New(httpOpts...),
		tracker:    o.tracker,
		overridden: o.authOverride != "",
	}
}

// LastResponse returns the most recent captured response.
func (c *Client) LastResponse() (*protocol.Response, error) {
	return c.http.LastResponse()
}

// Submit posts an audit request and returns the raw response body.
func (c *Client) Submit(ctx context.Context, in Request) (string, error) {
	logger := c.tracker.Logger()
	logger.Info("requesting audit data", "billing_id", in.BillingID)

	req, err := c.http.BuildRequest(ctx, http.MethodPost, c.cfg.AuditURL, true, "")
	if err != nil {
		c.tracker.TrackAPIRequest(APISubmit, http.MethodPost, 0, 0, false)
		return "", err
	}
	req.Body, err = json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encoding audit request: %w", err)
	}

	resp, err := c.do(ctx, APISubmit, req)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		apiErr := protocol.NewAPIError(APISubmit, resp)
		logger.Error("audit request failed", "status", resp.StatusCode, "error", apiErr.Message)
		return "", apiErr
	}
	logger.Info("retrieved audit data", "length", len(resp.Body))
	return string(resp.Body), nil
}

// ListHistory fetches the history listing. Non-2xx statuses are returned as a
// response, not an error.
func (c *Client) ListHistory(ctx context.Context, f HistoryFilter) (*protocol.Response, error) {
	c.tracker.Logger().Info("requesting audit history list",
		"table_description", f.TableDescription, "created_by", f.CreatedBy,
		"page", intOrNil(f.Page), "size", intOrNil(f.Size))

	req, err := c.http.BuildRequest(ctx, http.MethodGet, c.cfg.HistoryURL, !f.Unauthenticated, f.Accept)
	if err != nil {
		c.tracker.TrackAPIRequest(c.listAPI(), http.MethodGet, 0, 0, false)
		return nil, err
	}
	req.Params = f.Params()
	return c.do(ctx, c.listAPI(), req)
}

// GetHistoryByID fetches one record. Non-2xx statuses are returned as a
// response, not an error.
func (c *Client) GetHistoryByID(ctx context.Context, id string) (*protocol.Response, error) {
	c.tracker.Logger().Info("requesting audit history by id", "audit_history_id", id)

	target := strings.ReplaceAll(c.cfg.HistoryIDURL, HistoryIDPlaceholder, url.PathEscape(id))
	req, err := c.http.BuildRequest(ctx, http.MethodGet, target, true, "")
	if err != nil {
		c.tracker.TrackAPIRequest(APIHistoryByID, http.MethodGet, 0, 0, false)
		return nil, err
	}
	return c.do(ctx, APIHistoryByID, req)
}

func (c *Client) do(ctx context.Context, api string, req *protocol.Request) (*protocol.Response, error) {
	start := time.Now()
	resp, err := c.http.Execute(ctx, req)
	if err != nil {
		c.tracker.TrackAPIRequest(api, req.Method, 0, time.Since(start), false)
		c.tracker.Logger().Error("audit call failed", "api", api, "error", err)
		return nil, err
	}
	c.tracker.TrackAPIRequest(api, req.Method, resp.StatusCode, resp.Duration, resp.IsSuccess())
	return resp, nil
}

func (c *Client) listAPI() string {
	if c.overridden {
		return APIHistoryNoPerm
	}
	return APIHistoryList
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
