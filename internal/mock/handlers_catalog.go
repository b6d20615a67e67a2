package mock

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sadopc/apiprobe/internal/api/products"
)

func collection(items []products.Product, skip, limit int) products.Collection {
	total := len(items)
	start := min(skip, total)
	end := min(start+limit, total)
	page := items[start:end]
	if page == nil {
		page = []products.Product{}
	}
	return products.Collection{Products: page, Total: total, Skip: skip, Limit: limit}
}

func pageParams(r *http.Request) (skip, limit int) {
	limit = 30
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && n > 0 {
		skip = n
	}
	return skip, limit
}

// listProducts handles GET /products.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	writeJSON(w, http.StatusOK, collection(s.store.Products(), skip, limit))
}

// searchProducts handles GET /products/search?q=.
func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	var matches []products.Product
	for _, p := range s.store.Products() {
		if p.Matches(q) {
			matches = append(matches, p)
		}
	}
	skip, limit := pageParams(r)
	writeJSON(w, http.StatusOK, collection(matches, skip, limit))
}

// getProduct handles GET /products/{id}.
func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid product id '%s'", raw))
		return
	}
	for _, p := range s.store.Products() {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("Product with id '%d' not found", id))
}
