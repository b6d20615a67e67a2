package mock

import (
	"encoding/json"
	"io"
	"net/http"
)

// adminReset handles POST /admin/reset. ?reseed=true restores the default
// history instead of leaving it empty.
func (s *Server) adminReset(w http.ResponseWriter, r *http.Request) {
	reseed := r.URL.Query().Get("reseed") == "true"
	s.store.Reset(reseed)
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "records": len(s.store.Records())})
}

// adminSeed handles POST /admin/seed. The body is a JSON array of history
// records; an empty body seeds the defaults.
func (s *Server) adminSeed(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	records := SeedRecords()
	if len(body) > 0 {
		records = nil
		if err := json.Unmarshal(body, &records); err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON array of audit history records")
			return
		}
	}
	s.store.Seed(records...)
	writeJSON(w, http.StatusOK, map[string]any{"status": "seeded", "records": len(s.store.Records())})
}

// adminState handles GET /admin/state.
func (s *Server) adminState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// adminLoadState handles PUT /admin/state.
func (s *Server) adminLoadState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	if err := s.store.LoadState(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid state snapshot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "loaded", "records": len(s.store.Records())})
}

