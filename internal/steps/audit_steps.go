package steps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/check"
	"github.com/sadopc/apiprobe/internal/fixtures"
	"github.com/sadopc/apiprobe/internal/protocol"
)

func auditDefinitions() []definition {
	return []definition{
		{`^I load audit request data from "([^"]*)" using "([^"]*)"$`, func(w *world) any { return w.loadAuditRequest }},
		{`^I send the audit data request$`, func(w *world) any { return w.sendAuditRequest }},
		{`^the audit response should be valid$`, func(w *world) any { return w.auditResponseValid }},

		{`^the audit history store is empty$`, func(w *world) any { return w.historyStoreEmpty }},
		{`^an existing audit history id$`, func(w *world) any { return w.existingHistoryID }},
		{`^a valid createdBy id$`, func(w *world) any { return w.validCreatedByID }},

		{`^I request audit history data$`, func(w *world) any { return w.requestHistory }},
		{`^I request audit history by id with that id$`, func(w *world) any { return w.requestHistoryByThatID }},
		{`^I request audit history by id with a non-existent auditHistoryId$`, func(w *world) any { return w.requestHistoryByUnknownID }},
		{`^I request audit history by id with an invalid GUID format$`, func(w *world) any { return w.requestHistoryByMalformedID }},
		{`^I request audit history data without authentication$`, func(w *world) any { return w.requestHistoryUnauthenticated }},
		{`^I request audit history data with insufficient permissions$`, func(w *world) any { return w.requestHistoryInsufficientPermissions }},
		{`^I request audit history data filtered by tableDescription equals "([^"]*)"$`, func(w *world) any { return w.requestHistoryByTable }},
		{`^I request audit history data filtered by createdBy equals that id$`, func(w *world) any { return w.requestHistoryByThatCreator }},
		{`^I request audit history data filtered by createdBy equals "([^"]*)"$`, func(w *world) any { return w.requestHistoryByCreator }},
		{`^I request audit history data filtered by createdAt between "([^"]*)" and "([^"]*)"$`, func(w *world) any { return w.requestHistoryInRange }},
		{`^I request audit history data with page "([^"]*)" and size "([^"]*)"$`, func(w *world) any { return w.requestHistoryPage }},
		{`^I request audit history data sorted by "([^"]*)" in "([^"]*)" order$`, func(w *world) any { return w.requestHistorySorted }},
		{`^I request audit history data with Accept header "([^"]*)"$`, func(w *world) any { return w.requestHistoryAccepting }},
	}
}

func (w *world) loadAuditRequest(file, key string) error {
	var req audit.Request
	vars := map[string]string{}
	if w.createdByID != "" {
		vars["createdById"] = w.createdByID
	}
	if w.historyID != "" {
		vars["auditHistoryId"] = w.historyID
	}
	if err := fixtures.LoadWithVars(w.deps.Config.Run.FixturesDir, file, key, &req, vars); err != nil {
		return fmt.Errorf("loading audit request data: %w", err)
	}
	w.auditRequest = req
	return nil
}

func (w *world) sendAuditRequest(ctx context.Context) error {
	body, err := w.audit.Submit(ctx, w.auditRequest)
	w.auditResponse = body
	var resp *protocol.Response
	if err == nil {
		resp, _ = w.audit.LastResponse()
	}
	return w.capture("SubmitAudit", resp, err)
}

func (w *world) auditResponseValid() error {
	return expect(func(t assert.TestingT) {
		assert.NotEmpty(t, w.auditResponse, check.MsgAuditResponseNull)
	})
}

func (w *world) historyStoreEmpty(ctx context.Context) error {
	if err := w.resetStore(ctx, false); err != nil {
		return fmt.Errorf("emptying audit history store: %w", err)
	}
	w.storeEmptied = w.deps.Config.API.AdminResetURL != ""
	return nil
}

// firstRecord lists history and returns the newest record, if any.
func (w *world) firstRecord(ctx context.Context) (audit.HistoryRecord, bool) {
	resp, err := w.audit.ListHistory(ctx, audit.HistoryFilter{})
	if err != nil || !resp.IsSuccess() {
		w.logger.Warn("listing audit history for setup failed", "error", err)
		return audit.HistoryRecord{}, false
	}
	records, err := audit.DecodeHistory(resp)
	if err != nil || len(records) == 0 {
		return audit.HistoryRecord{}, false
	}
	return records[0], true
}

func (w *world) existingHistoryID(ctx context.Context) error {
	if rec, ok := w.firstRecord(ctx); ok && rec.AuditID != "" {
		w.historyID = rec.AuditID
		return nil
	}
	w.historyID = uuid.NewString()
	w.logger.Info("no audit history found; using a random id", "id", w.historyID)
	return nil
}

func (w *world) validCreatedByID(ctx context.Context) error {
	if rec, ok := w.firstRecord(ctx); ok && rec.CreatedBy != "" {
		w.createdByID = rec.CreatedBy
		return nil
	}
	w.createdByID = uuid.NewString()
	w.logger.Info("no audit history found; using a random creator id", "id", w.createdByID)
	return nil
}

// listHistory runs a history query and decodes the records when the call
// succeeded. A body that does not decode is kept as an error for the item
// assertions that follow.
func (w *world) listHistory(ctx context.Context, f audit.HistoryFilter) error {
	return w.listHistoryWith(ctx, w.audit, f)
}

func (w *world) listHistoryWith(ctx context.Context, c *audit.Client, f audit.HistoryFilter) error {
	resp, err := c.ListHistory(ctx, f)
	if cerr := w.capture("ListAuditHistory", resp, err); cerr != nil {
		return cerr
	}
	w.history, w.historyErr = nil, nil
	if resp != nil && resp.IsSuccess() && len(resp.Body) > 0 {
		w.history, w.historyErr = audit.DecodeHistory(resp)
		if w.historyErr != nil {
			w.logger.Warn("decoding audit history failed", "error", w.historyErr)
		}
	}
	return nil
}

func (w *world) requestHistory(ctx context.Context) error {
	return w.listHistory(ctx, audit.HistoryFilter{})
}

func (w *world) requestHistoryByID(ctx context.Context, id string) error {
	resp, err := w.audit.GetHistoryByID(ctx, id)
	return w.capture("GetAuditHistoryById", resp, err)
}

func (w *world) requestHistoryByThatID(ctx context.Context) error {
	return w.requestHistoryByID(ctx, w.historyID)
}

func (w *world) requestHistoryByUnknownID(ctx context.Context) error {
	return w.requestHistoryByID(ctx, uuid.NewString())
}

func (w *world) requestHistoryByMalformedID(ctx context.Context) error {
	return w.requestHistoryByID(ctx, "invalid-guid-format")
}

func (w *world) requestHistoryUnauthenticated(ctx context.Context) error {
	return w.listHistory(ctx, audit.HistoryFilter{Unauthenticated: true})
}

func (w *world) requestHistoryInsufficientPermissions(ctx context.Context) error {
	c := w.newAuditClient(audit.WithAuthOverride(w.deps.InsufficientPermissionsToken))
	return w.listHistoryWith(ctx, c, audit.HistoryFilter{})
}

func (w *world) requestHistoryByTable(ctx context.Context, table string) error {
	return w.listHistory(ctx, audit.HistoryFilter{TableDescription: table})
}

func (w *world) requestHistoryByThatCreator(ctx context.Context) error {
	return w.listHistory(ctx, audit.HistoryFilter{CreatedBy: w.createdByID})
}

func (w *world) requestHistoryByCreator(ctx context.Context, createdBy string) error {
	return w.listHistory(ctx, audit.HistoryFilter{CreatedBy: createdBy})
}

func (w *world) requestHistoryInRange(ctx context.Context, from, to string) error {
	w.rangeFrom, w.rangeTo = from, to
	return w.listHistory(ctx, audit.HistoryFilter{CreatedAtFrom: from, CreatedAtTo: to})
}

func (w *world) requestHistoryPage(ctx context.Context, page, size string) error {
	f := audit.HistoryFilter{}
	if n, err := strconv.Atoi(page); err == nil {
		f.Page = &n
	}
	if n, err := strconv.Atoi(size); err == nil {
		f.Size = &n
	}
	return w.listHistory(ctx, f)
}

func (w *world) requestHistorySorted(ctx context.Context, sortBy, order string) error {
	return w.listHistory(ctx, audit.HistoryFilter{SortBy: sortBy, SortOrder: order})
}

func (w *world) requestHistoryAccepting(ctx context.Context, accept string) error {
	return w.listHistory(ctx, audit.HistoryFilter{Accept: accept})
}
