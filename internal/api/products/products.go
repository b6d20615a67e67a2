// Package products is the client for the public product catalog.
package products

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/apiprobe/internal/protocol"
	httpclient "github.com/sadopc/apiprobe/internal/protocol/http"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

// DefaultBaseURL is the public catalog.
const DefaultBaseURL = "https://dummyjson.com"

// Telemetry API names.
const (
	APIList   = "ProductsList"
	APIGet    = "ProductById"
	APISearch = "ProductsSearch"
)

// Product is one catalog entry.
type Product struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Rating             float64  `json:"rating"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
}

// Matches reports whether term occurs in the title or description, ignoring case.
func (p Product) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// Collection is a page of products.
type Collection struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Client calls the catalog without authentication.
type Client struct {
	baseURL string
	http    *httpclient.Client
	tracker *telemetry.Tracker
}

// New creates a catalog client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, tracker *telemetry.Tracker, opts ...httpclient.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(opts...),
		tracker: tracker,
	}
}

// LastResponse returns the most recent captured response.
func (c *Client) LastResponse() (*protocol.Response, error) {
	return c.http.LastResponse()
}

// ListAll fetches the first page of products.
func (c *Client) ListAll(ctx context.Context) (Collection, *protocol.Response, error) {
	var out Collection
	resp, err := c.get(ctx, APIList, "/products", nil, "products", &out)
	return out, resp, err
}

// GetByID fetches one product.
func (c *Client) GetByID(ctx context.Context, id int) (Product, *protocol.Response, error) {
	var out Product
	resp, err := c.get(ctx, APIGet, "/products/"+strconv.Itoa(id), nil, "product", &out)
	return out, resp, err
}

// Search fetches products matching q.
func (c *Client) Search(ctx context.Context, q string) (Collection, *protocol.Response, error) {
	var out Collection
	resp, err := c.get(ctx, APISearch, "/products/search", map[string]string{"q": q}, "product search", &out)
	return out, resp, err
}

func (c *Client) get(ctx context.Context, api, path string, params map[string]string, target string, v any) (*protocol.Response, error) {
	req, err := c.http.BuildRequest(ctx, http.MethodGet, c.baseURL+path, false, "")
	if err != nil {
		return nil, err
	}
	if params != nil {
		req.Params = params
	}

	start := time.Now()
	resp, err := c.http.Execute(ctx, req)
	if err != nil {
		c.tracker.TrackAPIRequest(api, http.MethodGet, 0, time.Since(start), false)
		return nil, err
	}
	c.tracker.TrackAPIRequest(api, http.MethodGet, resp.StatusCode, resp.Duration, resp.IsSuccess())

	if !resp.IsSuccess() {
		return resp, protocol.NewAPIError(api, resp)
	}
	if err := protocol.Decode(resp, target, v); err != nil {
		return resp, err
	}
	return resp, nil
}
