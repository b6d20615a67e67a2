package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/api/products"
)

func do(t *testing.T, h http.Handler, method, target string, headers map[string]string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, "GET", "/gettoken", map[string]string{"ocp-apim-subscription-key": DefaultSubscriptionKey}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("token endpoint returned %d", rec.Code)
	}
	var body struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.AccessToken == "" || body.ExpiresIn != 3600 {
		t.Fatalf("unexpected token envelope %s", rec.Body.String())
	}
	return body.AccessToken
}

func authed(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok, "Accept": "application/json"}
}

func decodeRecords(t *testing.T, rec *httptest.ResponseRecorder) []audit.HistoryRecord {
	t.Helper()
	var out []audit.HistoryRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding records: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestTokenEndpointRejectsBadKey(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, "GET", "/gettoken", map[string]string{"ocp-apim-subscription-key": "wrong"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := New().Handler()
	tok := tokenFor(t, h)

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing", map[string]string{}, http.StatusUnauthorized},
		{"unknown token", authed("not-issued"), http.StatusUnauthorized},
		{"insufficient permissions", authed(InsufficientPermissionsToken), http.StatusForbidden},
		{"valid", authed(tok), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "GET", "/getAuditdata/audit-history", tt.headers, "")
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestListHistoryDefaultsToNewestFirst(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, "GET", "/getAuditdata/audit-history", authed(tokenFor(t, h)), "")

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("got Content-Type %q", ct)
	}
	records := decodeRecords(t, rec)
	if len(records) != len(SeedRecords()) {
		t.Fatalf("got %d records, want %d", len(records), len(SeedRecords()))
	}
	for i := 0; i+1 < len(records); i++ {
		if records[i].CreatedAt < records[i+1].CreatedAt {
			t.Fatalf("records not sorted descending at %d", i)
		}
	}
	if strings.Contains(rec.Body.String(), `"CreatedAt"`) {
		t.Error("createdAt should be camelCase on the wire")
	}
}

func TestListHistoryFilters(t *testing.T) {
	h := New().Handler()
	tok := tokenFor(t, h)

	rec := do(t, h, "GET", "/getAuditdata/audit-history?tableDescription=Orders", authed(tok), "")
	for _, r := range decodeRecords(t, rec) {
		if r.TDescription != "Orders" {
			t.Errorf("unexpected table %q", r.TDescription)
		}
	}

	rec = do(t, h, "GET", "/getAuditdata/audit-history?createdBy="+strings.ToUpper(CreatorBob), authed(tok), "")
	got := decodeRecords(t, rec)
	if len(got) == 0 {
		t.Fatal("expected records for Bob")
	}
	for _, r := range got {
		if r.CreatedBy != CreatorBob {
			t.Errorf("unexpected creator %q", r.CreatedBy)
		}
	}

	rec = do(t, h, "GET", "/getAuditdata/audit-history?createdAtFrom=2024-02-01T00:00:00Z&createdAtTo=2024-02-29T23:59:59Z", authed(tok), "")
	got = decodeRecords(t, rec)
	if len(got) != 2 {
		t.Errorf("got %d records in February, want 2", len(got))
	}
}

func TestListHistoryBadRequests(t *testing.T) {
	h := New().Handler()
	tok := tokenFor(t, h)

	tests := []struct {
		query string
		want  int
	}{
		{"createdBy=not-a-guid", http.StatusBadRequest},
		{"createdAtFrom=yesterday", http.StatusBadRequest},
		{"createdAtFrom=2024-03-01&createdAtTo=2024-01-01", http.StatusBadRequest},
		{"sortBy=nope", http.StatusBadRequest},
		{"sortOrder=sideways", http.StatusBadRequest},
		{"page=0&size=5", http.StatusBadRequest},
		{"page=1&size=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, h, "GET", "/getAuditdata/audit-history?"+tt.query, authed(tok), "")
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestListHistoryPagination(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, "GET", "/getAuditdata/audit-history?page=2&size=3", authed(tokenFor(t, h)), "")

	if len(decodeRecords(t, rec)) != 3 {
		t.Errorf("expected 3 records on page 2")
	}
	if rec.Header().Get("X-Page") != "2" || rec.Header().Get("X-Page-Size") != "3" {
		t.Errorf("missing pagination headers: %v", rec.Header())
	}
	if rec.Header().Get("X-Total-Count") != "7" {
		t.Errorf("got total %q, want 7", rec.Header().Get("X-Total-Count"))
	}

	rec = do(t, h, "GET", "/getAuditdata/audit-history?page=9&size=3", authed(tokenFor(t, h)), "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("page past the end should be an empty array, got %s", rec.Body.String())
	}
}

func TestListHistoryNotAcceptable(t *testing.T) {
	h := New().Handler()
	headers := authed(tokenFor(t, h))
	headers["Accept"] = "application/xml"
	rec := do(t, h, "GET", "/getAuditdata/audit-history", headers, "")
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("got status %d, want 406", rec.Code)
	}
}

func TestGetHistoryByID(t *testing.T) {
	h := New().Handler()
	tok := tokenFor(t, h)
	id := SeedRecords()[0].AuditID

	rec := do(t, h, "GET", "/getAuditdata("+id+")", authed(tok), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var got audit.HistoryRecord
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.AuditID != id {
		t.Errorf("got id %q, want %q", got.AuditID, id)
	}

	rec = do(t, h, "GET", "/getAuditdata(7c9e6679-7425-40de-944b-e07fc1f90ae7)", authed(tok), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}

	rec = do(t, h, "GET", "/getAuditdata(invalid-guid-format)", authed(tok), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestSubmitAudit(t *testing.T) {
	srv := New()
	h := srv.Handler()
	tok := tokenFor(t, h)

	headers := authed(tok)
	headers["ObjectId"] = "5C8C2E10-FCB5-4C0C-8344-88F315E31206"
	rec := do(t, h, "POST", "/getAuditdata", headers, `{"billingId":"B-1","reference":"R-9","codeId":"C-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d (%s)", rec.Code, rec.Body.String())
	}
	if len(srv.Store().Submissions()) != 1 {
		t.Error("submission not recorded")
	}
	if n := len(srv.Store().Records()); n != len(SeedRecords())+1 {
		t.Errorf("got %d records, want seed+1", n)
	}

	rec = do(t, h, "POST", "/getAuditdata", headers, `{"unitId":"U-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing billingId: got %d, want 400", rec.Code)
	}
}

func TestUserEndpoint(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, "GET", "/getUserdata", authed(tokenFor(t, h)), "")
	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.User.ID != UserID {
		t.Errorf("got user %q, want %q", body.User.ID, UserID)
	}
}

func TestCatalog(t *testing.T) {
	h := New().Handler()

	rec := do(t, h, "GET", "/products", nil, "")
	var all products.Collection
	json.Unmarshal(rec.Body.Bytes(), &all)
	if all.Total != len(SeedProducts()) || all.Limit != 30 {
		t.Errorf("unexpected collection %+v", all)
	}

	rec = do(t, h, "GET", "/products/search?q=phone", nil, "")
	var found products.Collection
	json.Unmarshal(rec.Body.Bytes(), &found)
	if len(found.Products) < 2 {
		t.Errorf("expected at least 2 phone matches, got %d", len(found.Products))
	}

	rec = do(t, h, "GET", "/products/1", nil, "")
	var p products.Product
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != 1 || p.Title == "" {
		t.Errorf("unexpected product %+v", p)
	}

	if rec := do(t, h, "GET", "/products/999", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rec.Code)
	}
	if rec := do(t, h, "GET", "/products/abc", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rec.Code)
	}
}

func TestAdminResetAndSeed(t *testing.T) {
	srv := New()
	h := srv.Handler()

	do(t, h, "POST", "/admin/reset", nil, "")
	if n := len(srv.Store().Records()); n != 0 {
		t.Fatalf("got %d records after reset, want 0", n)
	}

	rec := do(t, h, "GET", "/getAuditdata/audit-history", authed(tokenFor(t, h)), "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty store should list [], got %s", rec.Body.String())
	}

	do(t, h, "POST", "/admin/seed", nil, `[{"AuditId":"11111111-1111-1111-1111-111111111111","createdAt":"2024-01-01T00:00:00Z"}]`)
	if n := len(srv.Store().Records()); n != 1 {
		t.Errorf("got %d records after seed, want 1", n)
	}

	do(t, h, "POST", "/admin/reset?reseed=true", nil, "")
	if n := len(srv.Store().Records()); n != len(SeedRecords()) {
		t.Errorf("got %d records after reseed, want %d", n, len(SeedRecords()))
	}

	rec = do(t, h, "GET", "/admin/state", nil, "")
	if !strings.Contains(rec.Body.String(), `"records"`) {
		t.Errorf("state missing records: %s", rec.Body.String())
	}
	state := rec.Body.String()
	do(t, h, "POST", "/admin/reset", nil, "")
	do(t, h, "PUT", "/admin/state", nil, state)
	if n := len(srv.Store().Records()); n != len(SeedRecords()) {
		t.Errorf("got %d records after loading state, want %d", n, len(SeedRecords()))
	}
}

func TestCORSHeaders(t *testing.T) {
	h := New().Handler()

	rec := do(t, h, "GET", "/products", nil, "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("got ACAO %q, want %q", origin, "*")
	}

	rec = do(t, h, "OPTIONS", "/products", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS got status %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCustomCORSOrigin(t *testing.T) {
	h := New(WithCORSOrigin("https://myapp.example.com")).Handler()
	rec := do(t, h, "GET", "/products", nil, "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "https://myapp.example.com" {
		t.Errorf("got ACAO %q, want %q", origin, "https://myapp.example.com")
	}
}

func TestLatencySimulation(t *testing.T) {
	latency := 50 * time.Millisecond
	h := New(WithLatency(latency)).Handler()

	start := time.Now()
	do(t, h, "GET", "/products", nil, "")
	if elapsed := time.Since(start); elapsed < latency {
		t.Errorf("request took %v, expected at least %v", elapsed, latency)
	}
}

func TestErrorRateSimulation(t *testing.T) {
	h := New(WithErrorRate(1.0)).Handler()

	rec := do(t, h, "GET", "/products", nil, "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d with error rate 1.0", rec.Code, http.StatusInternalServerError)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] != "Simulated server error" {
		t.Errorf("got error %q, want %q", resp["error"], "Simulated server error")
	}

	if rec := do(t, h, "POST", "/admin/reset", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("admin endpoints should not fail, got %d", rec.Code)
	}
}

func TestWithErrorRateClamping(t *testing.T) {
	if srv := New(WithErrorRate(2.0)); srv.errorRate != 1.0 {
		t.Errorf("got error rate %f, want 1.0 (clamped)", srv.errorRate)
	}
	if srv := New(WithErrorRate(-0.5)); srv.errorRate != 0.0 {
		t.Errorf("got error rate %f, want 0.0 (clamped)", srv.errorRate)
	}
}

func TestNotFoundWithRouteListing(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, "GET", "/nonexistent", nil, "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusNotFound)
	}
	var resp struct {
		Error  string  `json:"error"`
		Routes []route `json:"available_routes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode 404 response: %v", err)
	}
	if resp.Error != "Route not found" {
		t.Errorf("got error %q, want %q", resp.Error, "Route not found")
	}
	if len(resp.Routes) == 0 {
		t.Error("expected available_routes to be non-empty")
	}
}

func TestRoutesAndPort(t *testing.T) {
	srv := New(WithPort(9090))
	if srv.Port() != 9090 {
		t.Errorf("got port %d, want 9090", srv.Port())
	}
	routes := strings.Join(srv.Routes(), "\n")
	for _, want := range []string{"GET /gettoken", "POST /getAuditdata", "GET /getAuditdata({id})", "POST /admin/reset"} {
		if !strings.Contains(routes, want) {
			t.Errorf("route %q missing from %s", want, routes)
		}
	}
}
