package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/auth/token"
	"github.com/sadopc/apiprobe/internal/check"
)

// issueToken handles GET /gettoken.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(token.SubscriptionKeyHeader) != s.subscriptionKey {
		writeError(w, http.StatusUnauthorized, "Access denied due to invalid subscription key.")
		return
	}
	tok := uuid.NewString()
	s.store.IssueToken(tok)
	writeJSON(w, http.StatusOK, token.Response{
		AccessToken: tok,
		ExpiresIn:   3600,
		TokenType:   "Bearer",
	})
}

// requireToken rejects requests without an issued bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(auth, "Bearer ")
		switch {
		case !ok || strings.TrimSpace(tok) == "":
			writeError(w, http.StatusUnauthorized, "Authorization header is missing or invalid")
		case tok == InsufficientPermissionsToken:
			writeError(w, http.StatusForbidden, "Insufficient permissions to access audit history")
		case !s.store.ValidToken(tok):
			writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// submitAudit handles POST /getAuditdata.
func (s *Server) submitAudit(w http.ResponseWriter, r *http.Request) {
	var req audit.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body is not valid JSON")
		return
	}
	if strings.TrimSpace(req.BillingID) == "" {
		writeError(w, http.StatusBadRequest, "billingId is required")
		return
	}

	createdBy := r.Header.Get("ObjectId")
	if _, err := uuid.Parse(createdBy); err != nil {
		createdBy = CreatorAlice
	}
	rec := audit.HistoryRecord{
		AuditID:      uuid.NewString(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		CreatedBy:    strings.ToLower(createdBy),
		PDescription: "Audit requested for billing " + req.BillingID,
		TDescription: "Billing",
		Details:      req.Reference,
		ImpKey:       req.CodeID,
	}
	s.store.Submit(req, rec)

	writeJSON(w, http.StatusOK, map[string]any{
		"auditId":   rec.AuditID,
		"billingId": req.BillingID,
		"unitId":    req.UnitID,
		"status":    "Accepted",
		"createdAt": rec.CreatedAt,
	})
}

func acceptsJSON(accept string) bool {
	if accept == "" {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		media := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch {
		case media == "*/*", media == "application/*", strings.Contains(media, "json"):
			return true
		}
	}
	return false
}

// listHistory handles GET /getAuditdata/audit-history.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if !acceptsJSON(r.Header.Get("Accept")) {
		writeError(w, http.StatusNotAcceptable, "Only application/json responses are supported")
		return
	}
	q := r.URL.Query()
	records := s.store.Records()

	if td := q.Get("tableDescription"); td != "" {
		records = filter(records, func(h audit.HistoryRecord) bool { return h.TDescription == td })
	}
	if by := q.Get("createdBy"); by != "" {
		id, err := uuid.Parse(by)
		if err != nil {
			writeError(w, http.StatusBadRequest, "createdBy must be a valid GUID")
			return
		}
		records = filter(records, func(h audit.HistoryRecord) bool {
			other, err := uuid.Parse(h.CreatedBy)
			return err == nil && other == id
		})
	}

	from, to := q.Get("createdAtFrom"), q.Get("createdAtTo")
	if from != "" || to != "" {
		lo, hi := time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		var err error
		if from != "" {
			if lo, err = check.ParseTimestamp(from); err != nil {
				writeError(w, http.StatusBadRequest, "createdAtFrom is not a valid ISO 8601 timestamp")
				return
			}
		}
		if to != "" {
			if hi, err = check.ParseTimestamp(to); err != nil {
				writeError(w, http.StatusBadRequest, "createdAtTo is not a valid ISO 8601 timestamp")
				return
			}
		}
		if lo.After(hi) {
			writeError(w, http.StatusBadRequest, check.InvalidDateRange(from, to))
			return
		}
		records = filter(records, func(h audit.HistoryRecord) bool {
			return check.WithinRange(h.CreatedAt, lo, hi) == nil
		})
	}

	if err := sortRecords(records, q.Get("sortBy"), q.Get("sortOrder")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total := len(records)
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	if q.Has("page") || q.Has("size") {
		page, err := positiveInt(q.Get("page"), 1)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		size, err := positiveInt(q.Get("size"), 10)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be a positive integer")
			return
		}
		start := min((page-1)*size, total)
		end := min(start+size, total)
		records = records[start:end]
		w.Header().Set(check.HeaderPage, strconv.Itoa(page))
		w.Header().Set(check.HeaderPageSize, strconv.Itoa(size))
	}

	if records == nil {
		records = []audit.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// getHistory handles GET /getAuditdata({id}).
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "auditHistoryId must be a valid GUID")
		return
	}
	rec, ok := s.store.Record(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Audit history not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// getUser handles GET /getUserdata.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{
			"id":    UserID,
			"name":  "Team Test",
			"email": "teamtest@mytest.com",
		},
	})
}

func filter(records []audit.HistoryRecord, keep func(audit.HistoryRecord) bool) []audit.HistoryRecord {
	out := records[:0]
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func sortRecords(records []audit.HistoryRecord, sortBy, order string) error {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	get, err := audit.Fields.Lookup(sortBy)
	if err != nil {
		return fmt.Errorf("sortBy %q is not a sortable field", sortBy)
	}
	var desc bool
	switch strings.ToLower(order) {
	case "", "desc", "descending":
		desc = true
	case "asc", "ascending":
	default:
		return fmt.Errorf("sortOrder must be asc or desc")
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := get(records[i]), get(records[j])
		if desc {
			return lessValue(b, a)
		}
		return lessValue(a, b)
	})
	return nil
}

func lessValue(a, b string) bool {
	ta, errA := check.ParseTimestamp(a)
	tb, errB := check.ParseTimestamp(b)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return a < b
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("not a positive integer: %q", raw)
	}
	return n, nil
}
