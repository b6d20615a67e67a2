package mock

import (
	"encoding/json"
	"sync"

	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/api/products"
)

// Store holds the twin's in-memory state.
type Store struct {
	mu          sync.RWMutex
	records     []audit.HistoryRecord
	submissions []audit.Request
	tokens      map[string]struct{}
	products    []products.Product
}

// NewStore creates a store loaded with the default seed data.
func NewStore() *Store {
	s := &Store{tokens: make(map[string]struct{})}
	s.Reset(true)
	return s
}

// Reset clears audit history and submissions. With reseed the default
// history records are restored. Issued tokens stay valid.
func (s *Store) Reset(reseed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.submissions = nil
	if reseed {
		s.records = SeedRecords()
	}
	s.products = SeedProducts()
}

// Seed appends history records.
func (s *Store) Seed(records ...audit.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// Records returns a copy of the history records.
func (s *Store) Records() []audit.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.HistoryRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Record looks up a history record by id.
func (s *Store) Record(id string) (audit.HistoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.AuditID == id {
			return r, true
		}
	}
	return audit.HistoryRecord{}, false
}

// Submit records an audit submission and the history entry it produced.
func (s *Store) Submit(req audit.Request, rec audit.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, req)
	s.records = append(s.records, rec)
}

// Submissions returns a copy of received audit submissions.
func (s *Store) Submissions() []audit.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Request, len(s.submissions))
	copy(out, s.submissions)
	return out
}

// IssueToken remembers a token handed out by the token endpoint.
func (s *Store) IssueToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = struct{}{}
}

// ValidToken reports whether token was issued.
func (s *Store) ValidToken(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

// Products returns a copy of the catalog.
func (s *Store) Products() []products.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]products.Product, len(s.products))
	copy(out, s.products)
	return out
}

type stateSnapshot struct {
	Records     []audit.HistoryRecord `json:"records"`
	Submissions []audit.Request       `json:"submissions"`
	Tokens      int                   `json:"tokensIssued"`
}

// Snapshot returns the state served by the admin endpoint.
func (s *Store) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateSnapshot{
		Records:     append([]audit.HistoryRecord{}, s.records...),
		Submissions: append([]audit.Request{}, s.submissions...),
		Tokens:      len(s.tokens),
	}
}

// LoadState replaces history records and submissions from a snapshot.
func (s *Store) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = snap.Records
	s.submissions = snap.Submissions
	return nil
}
