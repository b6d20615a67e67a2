package products

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sadopc/apiprobe/internal/protocol"
)

func catalog(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[{"id":1,"title":"iPhone 9","description":"An apple mobile"}],"total":1,"skip":0,"limit":30}`))
	})
	mux.HandleFunc("GET /products/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "phone" {
			t.Errorf("expected q=phone, got %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`{"products":[{"id":1,"title":"iPhone 9","description":"An apple mobile"}],"total":1}`))
	})
	mux.HandleFunc("GET /products/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1,"title":"iPhone 9","description":"An apple mobile","price":549}`))
	})
	mux.HandleFunc("GET /products/2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	mux.HandleFunc("GET /products/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Product with id '404' not found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListAll(t *testing.T) {
	c := New(catalog(t).URL, nil)
	got, resp, err := c.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if len(got.Products) != 1 || got.Limit != 30 {
		t.Errorf("unexpected collection %+v", got)
	}
}

func TestGetByID(t *testing.T) {
	c := New(catalog(t).URL+"/", nil)
	got, _, err := c.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ID != 1 || got.Title != "iPhone 9" || got.Price != 549 {
		t.Errorf("unexpected product %+v", got)
	}
}

func TestSearch(t *testing.T) {
	c := New(catalog(t).URL, nil)
	got, _, err := c.Search(context.Background(), "phone")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got.Products) == 0 || !got.Products[0].Matches("PHONE") {
		t.Errorf("expected a phone match, got %+v", got.Products)
	}
}

func TestErrors(t *testing.T) {
	c := New(catalog(t).URL, nil)

	_, resp, err := c.GetByID(context.Background(), 404)
	var apiErr *protocol.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 404 || resp == nil {
		t.Errorf("unexpected APIError %+v", apiErr)
	}

	_, _, err = c.GetByID(context.Background(), 2)
	var de *protocol.DeserializationError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeserializationError, got %v", err)
	}

	last, err := c.LastResponse()
	if err != nil || last.StatusCode != 200 {
		t.Errorf("expected last response to be the malformed 200, got %v %v", last, err)
	}
}

func TestMatches(t *testing.T) {
	p := Product{Title: "Laptop", Description: "Works as a Phone charger"}
	if !p.Matches("phone") {
		t.Error("expected description match")
	}
	if p.Matches("tablet") {
		t.Error("unexpected match")
	}
}
