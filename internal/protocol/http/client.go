package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/oauth2"

	"github.com/sadopc/apiprobe/internal/protocol"
)

// Identity holds the fixed caller headers attached to every request.
type Identity struct {
	ObjectID string
	Cored    string
	Type     string
}

// DefaultIdentity returns the identity headers the Audit gateway expects from
// the test team.
func DefaultIdentity() Identity {
	return Identity{
		ObjectID: "5C8C2E10-FCB5-4C0C-8344-88F315E31206",
		Cored:    "6C8C2E10-FCB5-4C0C-8344-88F315E31206",
		Type:     "TeamTest",
	}
}

// ProxyConfig holds proxy settings.
type ProxyConfig struct {
	URL     string // http://, https://, or socks5:// proxy URL
	NoProxy string // comma-separated list of hosts to bypass proxy
}

// Client builds and executes API requests and keeps the most recent response.
// A Client belongs to a single scenario and is not safe for concurrent use.
type Client struct {
	httpClient *http.Client
	transport  http.RoundTripper
	proxyConf  *ProxyConfig
	tlsConfig  *tls.Config
	tokens     oauth2.TokenSource
	identity   Identity
	last       *protocol.Response
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets the source used for authenticated requests.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithIdentity overrides the identity headers.
func WithIdentity(id Identity) Option {
	return func(c *Client) { c.identity = id }
}

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithProxy routes requests through a proxy.
func WithProxy(proxyURL, noProxy string) Option {
	return func(c *Client) { c.SetProxy(proxyURL, noProxy) }
}

// WithTLSConfig sets the TLS client configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) { c.SetTLSConfig(cfg) }
}

// New creates a new HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		identity: DefaultIdentity(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProxy configures proxy settings for the client.
func (c *Client) SetProxy(proxyURL, noProxy string) {
	c.transport = nil
	if proxyURL == "" {
		c.proxyConf = nil
		return
	}
	c.proxyConf = &ProxyConfig{URL: proxyURL, NoProxy: noProxy}
}

// SetTLSConfig sets the TLS configuration used by the transport.
func (c *Client) SetTLSConfig(cfg *tls.Config) {
	c.transport = nil
	c.tlsConfig = cfg
}

// HTTPClient returns a plain *http.Client with this client's timeout, proxy
// and TLS settings. The token provider uses it so token calls take the same
// network path as API calls.
func (c *Client) HTTPClient() (*http.Client, error) {
	transport, err := c.roundTripper()
	if err != nil {
		return nil, fmt.Errorf("configuring transport: %w", err)
	}
	return &http.Client{
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Transport:     transport,
	}, nil
}

// TokenSource returns the source used for authenticated requests.
func (c *Client) TokenSource() oauth2.TokenSource {
	return c.tokens
}

// IsBodyMethod reports whether requests with this method carry a JSON body.
func IsBodyMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

type contextTokenSource interface {
	TokenContext(ctx context.Context) (*oauth2.Token, error)
}

// BuildRequest creates a request carrying the standard headers. When useAuth is
// true a token is fetched synchronously for this request alone.
func (c *Client) BuildRequest(ctx context.Context, method, rawURL string, useAuth bool, accept string) (*protocol.Request, error) {
	if accept == "" {
		accept = "application/json"
	}
	req := &protocol.Request{
		Method:  strings.ToUpper(method),
		URL:     rawURL,
		Headers: map[string]string{"Accept": accept},
		Params:  map[string]string{},
	}

	if IsBodyMethod(req.Method) {
		req.Headers["Content-Type"] = "application/json"
	}

	if useAuth {
		tok, err := c.fetchToken(ctx)
		if err != nil {
			return nil, err
		}
		req.Headers["Authorization"] = "Bearer " + tok.AccessToken
	}

	req.Headers["ObjectId"] = c.identity.ObjectID
	req.Headers["Cored"] = c.identity.Cored
	req.Headers["Type"] = c.identity.Type

	return req, nil
}

func (c *Client) fetchToken(ctx context.Context) (*oauth2.Token, error) {
	if c.tokens == nil {
		return nil, &protocol.AuthError{Message: "no token source configured"}
	}
	var (
		tok *oauth2.Token
		err error
	)
	if cts, ok := c.tokens.(contextTokenSource); ok {
		tok, err = cts.TokenContext(ctx)
	} else {
		tok, err = c.tokens.Token()
	}
	if err != nil {
		var authErr *protocol.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &protocol.AuthError{Err: err}
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, &protocol.AuthError{Message: "access token not found in response"}
	}
	return tok, nil
}

// Validate checks that a request can be sent.
func (c *Client) Validate(req *protocol.Request) error {
	if req.URL == "" {
		return fmt.Errorf("URL is required")
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	_, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return nil
}

// LastResponse returns the response of the most recent Execute call.
func (c *Client) LastResponse() (*protocol.Response, error) {
	if c.last == nil {
		return nil, protocol.ErrNotYetRequested
	}
	return c.last, nil
}

// Execute sends the request and records the response as the last response.
func (c *Client) Execute(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if err := c.Validate(req); err != nil {
		return nil, err
	}

	// Build URL with query params
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	transport, err := c.roundTripper()
	if err != nil {
		return nil, fmt.Errorf("configuring transport: %w", err)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.httpClient.Timeout
	}
	client := &http.Client{
		Timeout:       timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Transport:     transport,
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.last = &protocol.Response{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Headers:     resp.Header,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
		Duration:    duration,
		Size:        int64(len(respBody)),
		Proto:       resp.Proto,
		Method:      req.Method,
		URL:         u.String(),
	}
	return c.last, nil
}

func (c *Client) roundTripper() (http.RoundTripper, error) {
	if c.transport != nil {
		return c.transport, nil
	}
	rt, err := c.buildTransport()
	if err != nil {
		return nil, err
	}
	c.transport = rt
	return rt, nil
}

// buildTransport creates an http.Transport configured with proxy and TLS settings.
func (c *Client) buildTransport() (http.RoundTripper, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if c.tlsConfig != nil {
		transport.TLSClientConfig = c.tlsConfig
	}

	if c.proxyConf == nil {
		return transport, nil
	}

	parsed, err := url.Parse(c.proxyConf.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy URL: %w", err)
	}

	switch parsed.Scheme {
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{
				User:     parsed.User.Username(),
				Password: password,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("creating SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	case "http", "https":
		if c.proxyConf.NoProxy != "" {
			noProxyHosts := parseNoProxy(c.proxyConf.NoProxy)
			transport.Proxy = func(r *http.Request) (*url.URL, error) {
				if shouldBypassProxy(r.URL.Hostname(), noProxyHosts) {
					return nil, nil
				}
				return parsed, nil
			}
		} else {
			transport.Proxy = http.ProxyURL(parsed)
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", parsed.Scheme)
	}

	return transport, nil
}

// parseNoProxy splits a comma-separated no-proxy string into trimmed host entries.
func parseNoProxy(noProxy string) []string {
	parts := strings.Split(noProxy, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			hosts = append(hosts, strings.ToLower(p))
		}
	}
	return hosts
}

// shouldBypassProxy checks whether a host should bypass the proxy.
func shouldBypassProxy(host string, noProxyHosts []string) bool {
	host = strings.ToLower(host)
	for _, h := range noProxyHosts {
		if h == host {
			return true
		}
		// .example.com matches any subdomain
		if strings.HasPrefix(h, ".") && strings.HasSuffix(host, h) {
			return true
		}
	}
	return false
}
