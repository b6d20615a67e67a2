package audit

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/sadopc/apiprobe/internal/check"
	"github.com/sadopc/apiprobe/internal/protocol"
)

// EffectiveWindow bounds the period an audit request covers.
type EffectiveWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Request is the body submitted to the audit endpoint.
type Request struct {
	BillingID       string          `json:"billingId" yaml:"billingId"`
	UnitID          string          `json:"unitId" yaml:"unitId"`
	Reference       string          `json:"reference" yaml:"reference"`
	CodeID          string          `json:"codeId" yaml:"codeId"`
	EffectiveWindow EffectiveWindow `json:"effectiveWindow" yaml:"effectiveWindow"`
}

// HistoryRecord is one audit history entry. The wire names are mixed case.
type HistoryRecord struct {
	AuditID      string `json:"AuditId"`
	CreatedAt    string `json:"createdAt"`
	CreatedBy    string `json:"createdBy"`
	PDescription string `json:"PDescription"`
	TDescription string `json:"TDescription"`
	Details      string `json:"details"`
	ImpKey       string `json:"ImpKey"`
}

// HistoryPage is the enveloped form of a history listing. Items is a
// pointer so that an object without the key can be told apart from an
// empty page.
type HistoryPage struct {
	Items *[]HistoryRecord `json:"items"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Total int              `json:"total"`
}

var errMissingItems = errors.New(`object has no "items" array`)

// Fields exposes HistoryRecord fields to assertions by logical name.
var Fields = check.Accessors[HistoryRecord]{
	"auditId":          func(r HistoryRecord) string { return r.AuditID },
	"auditHistoryId":   func(r HistoryRecord) string { return r.AuditID },
	"createdAt":        func(r HistoryRecord) string { return r.CreatedAt },
	"createdBy":        func(r HistoryRecord) string { return r.CreatedBy },
	"pDescription":     func(r HistoryRecord) string { return r.PDescription },
	"tDescription":     func(r HistoryRecord) string { return r.TDescription },
	"tableDescription": func(r HistoryRecord) string { return r.TDescription },
	"details":          func(r HistoryRecord) string { return r.Details },
	"impKey":           func(r HistoryRecord) string { return r.ImpKey },
}

// DecodeHistory reads a history listing. Both a bare JSON array and a
// {"items": [...]} envelope are accepted. Any other object is an error.
func DecodeHistory(resp *protocol.Response) ([]HistoryRecord, error) {
	if resp != nil {
		trimmed := bytes.TrimSpace(resp.Body)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var page HistoryPage
			if err := json.Unmarshal(trimmed, &page); err != nil {
				return nil, &protocol.DeserializationError{Target: "audit history page", Err: err}
			}
			if page.Items == nil {
				return nil, &protocol.DeserializationError{Target: "audit history page", Err: errMissingItems}
			}
			return *page.Items, nil
		}
	}
	var records []HistoryRecord
	if err := protocol.Decode(resp, "audit history list", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DecodeRecord reads a single history record.
func DecodeRecord(resp *protocol.Response) (HistoryRecord, error) {
	var rec HistoryRecord
	err := protocol.Decode(resp, "audit history record", &rec)
	return rec, err
}
