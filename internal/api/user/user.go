// Package user is the client for the authenticated user profile endpoint.
package user

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/sadopc/apiprobe/internal/protocol"
	httpclient "github.com/sadopc/apiprobe/internal/protocol/http"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

// APIName labels user calls in telemetry.
const APIName = "UserData"

// Data is the user payload.
type Data struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile is the envelope returned by the user endpoint.
type Profile struct {
	User *Data `json:"user"`
}

// Client fetches the caller's profile.
type Client struct {
	url     string
	http    *httpclient.Client
	tracker *telemetry.Tracker
}

// New creates a user client.
func New(url string, tokens oauth2.TokenSource, tracker *telemetry.Tracker, opts ...httpclient.Option) *Client {
	opts = append(opts, httpclient.WithTokenSource(tokens))
	return &Client{url: url, http: httpclient.New(opts...), tracker: tracker}
}

// LastResponse returns the most recent captured response.
func (c *Client) LastResponse() (*protocol.Response, error) {
	return c.http.LastResponse()
}

// FetchProfile requests the profile with a freshly fetched token.
func (c *Client) FetchProfile(ctx context.Context) (Profile, *protocol.Response, error) {
	var out Profile
	req, err := c.http.BuildRequest(ctx, http.MethodGet, c.url, true, "")
	if err != nil {
		c.tracker.TrackAPIRequest(APIName, http.MethodGet, 0, 0, false)
		return out, nil, err
	}

	start := time.Now()
	resp, err := c.http.Execute(ctx, req)
	if err != nil {
		c.tracker.TrackAPIRequest(APIName, http.MethodGet, 0, time.Since(start), false)
		return out, nil, err
	}
	c.tracker.TrackAPIRequest(APIName, http.MethodGet, resp.StatusCode, resp.Duration, resp.IsSuccess())

	if !resp.IsSuccess() {
		return out, resp, protocol.NewAPIError(APIName, resp)
	}
	if err := protocol.Decode(resp, "user profile", &out); err != nil {
		return out, resp, err
	}
	return out, resp, nil
}
