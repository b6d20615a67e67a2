// Package token fetches bearer tokens from the gateway token endpoint.
//
// The endpoint is a plain GET authenticated with an API-management subscription
// key. Tokens are never cached: every call to Token or FetchAccessToken issues a
// fresh request, so the expiry hint carried by the envelope is informational.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/sadopc/apiprobe/internal/protocol"
)

// SubscriptionKeyHeader carries the static gateway key on token requests.
const SubscriptionKeyHeader = "ocp-apim-subscription-key"

// Config holds token endpoint settings.
type Config struct {
	TokenURL        string
	SubscriptionKey string
	Timeout         time.Duration
}

// Response is the token envelope returned by the endpoint.
type Response struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int       `json:"expiresIn"`
	TokenType   string    `json:"tokenType"`
	ObtainedAt  time.Time `json:"-"`
}

// IsExpired checks whether the token has outlived its expiry hint.
func (t *Response) IsExpired() bool {
	if t.ExpiresIn == 0 {
		return false
	}
	return time.Since(t.ObtainedAt) > time.Duration(t.ExpiresIn)*time.Second
}

// Provider fetches a fresh token per call. It implements oauth2.TokenSource and
// must not be wrapped in oauth2.ReuseTokenSource.
type Provider struct {
	cfg        Config
	httpClient *http.Client
}

var _ oauth2.TokenSource = (*Provider)(nil)

// NewProvider creates a token provider. A nil client uses a client with the
// configured timeout.
func NewProvider(cfg Config, client *http.Client) *Provider {
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Provider{cfg: cfg, httpClient: client}
}

// Token implements oauth2.TokenSource.
func (p *Provider) Token() (*oauth2.Token, error) {
	return p.TokenContext(context.Background())
}

// TokenContext is Token bound to ctx.
func (p *Provider) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	resp, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}
	if resp.ExpiresIn > 0 {
		tok.Expiry = resp.ObtainedAt.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// FetchAccessToken returns only the bearer string.
func (p *Provider) FetchAccessToken(ctx context.Context) (string, error) {
	resp, err := p.Fetch(ctx)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Fetch issues the token request and returns the full envelope.
func (p *Provider) Fetch(ctx context.Context) (*Response, error) {
	if p.cfg.TokenURL == "" {
		return nil, &protocol.AuthError{Err: errors.New("token URL is not configured")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.TokenURL, nil)
	if err != nil {
		return nil, &protocol.AuthError{Err: fmt.Errorf("creating token request: %w", err)}
	}
	req.Header.Set(SubscriptionKeyHeader, p.cfg.SubscriptionKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &protocol.AuthError{Err: fmt.Errorf("token request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &protocol.AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &protocol.AuthError{
			StatusCode: resp.StatusCode,
			Message:    protocol.ErrorMessage(&protocol.Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}),
		}
	}

	var tok Response
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, &protocol.AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing token response: %w", err)}
	}
	if tok.AccessToken == "" {
		return nil, &protocol.AuthError{StatusCode: resp.StatusCode, Message: "access token not found in response"}
	}
	tok.ObtainedAt = time.Now()

	return &tok, nil
}

// Static returns a token source that always yields the given bearer. It backs
// the auth override used by permission scenarios.
func Static(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}
