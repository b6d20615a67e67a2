package steps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/sadopc/apiprobe/internal/check"
)

// defaultSearchTerm is used when a search endpoint carries no q parameter.
const defaultSearchTerm = "phone"

func productDefinitions() []definition {
	return []definition{
		{`^I send a GET request to "([^"]*)"$`, func(w *world) any { return w.getCatalog }},
		{`^the response should contain a list of products$`, func(w *world) any { return w.containsProducts }},
		{`^the response should contain product details$`, func(w *world) any { return w.containsProductDetails }},
		{`^the response should contain matching products$`, func(w *world) any { return w.containsMatchingProducts }},
	}
}

func userDefinitions() []definition {
	return []definition{
		{`^I request user data$`, func(w *world) any { return w.requestUser }},
		{`^the user response should be valid$`, func(w *world) any { return w.userValid }},
	}
}

// getCatalog dispatches on the endpoint shape: /products/search?q=...,
// /products/{id} or /products.
func (w *world) getCatalog(ctx context.Context, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}
	p := strings.TrimRight(u.Path, "/")

	switch {
	case strings.HasSuffix(p, "/search"):
		w.searchTerm = u.Query().Get("q")
		if w.searchTerm == "" {
			w.searchTerm = defaultSearchTerm
		}
		col, resp, err := w.products.Search(ctx, w.searchTerm)
		if err == nil {
			w.catalog = &col
		}
		return w.capture("SearchProducts", resp, err)

	case strings.Contains(p, "/products/"):
		id, err := strconv.Atoi(path.Base(p))
		if err != nil {
			return fmt.Errorf("product id in %q is not a number", endpoint)
		}
		prod, resp, err := w.products.GetByID(ctx, id)
		if err == nil {
			w.product = &prod
		}
		return w.capture("GetProduct", resp, err)

	default:
		col, resp, err := w.products.ListAll(ctx)
		if err == nil {
			w.catalog = &col
		}
		return w.capture("ListProducts", resp, err)
	}
}

func (w *world) containsProducts() error {
	if w.catalog == nil {
		return errors.New(check.MsgProductsResponseNull)
	}
	return expect(func(t assert.TestingT) {
		assert.NotEmpty(t, w.catalog.Products, check.MsgProductsListEmpty)
	})
}

func (w *world) containsProductDetails() error {
	if w.product == nil {
		return errors.New(check.MsgProductsResponseNull)
	}
	p := w.product
	if p.ID <= 0 {
		return errors.New(check.ProductIDInvalid(p.ID))
	}
	return expect(func(t assert.TestingT) {
		assert.NotEmpty(t, strings.TrimSpace(p.Title), check.MsgProductTitleEmpty)
		assert.NotEmpty(t, strings.TrimSpace(p.Description), check.MsgProductDescEmpty)
	})
}

func (w *world) containsMatchingProducts() error {
	if w.catalog == nil {
		return errors.New(check.MsgProductsResponseNull)
	}
	if len(w.catalog.Products) == 0 {
		return errors.New(check.MsgSearchResultsEmpty)
	}
	for _, p := range w.catalog.Products {
		if p.Matches(w.searchTerm) {
			return nil
		}
	}
	return fmt.Errorf(check.MsgNoMatchingProducts, w.searchTerm)
}

func (w *world) requestUser(ctx context.Context) error {
	profile, resp, err := w.user.FetchProfile(ctx)
	if err == nil {
		w.profile = &profile
	}
	return w.capture("GetUserData", resp, err)
}

func (w *world) userValid() error {
	if w.profile == nil {
		return errors.New(check.MsgUserResponseNull)
	}
	return expect(func(t assert.TestingT) {
		if assert.NotNil(t, w.profile.User, check.MsgUserDataMissing) {
			assert.NotEmpty(t, w.profile.User.ID, check.MsgUserIDEmpty)
		}
	})
}

