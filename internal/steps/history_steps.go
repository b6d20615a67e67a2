package steps

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/stretchr/testify/assert"

	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/check"
)

func historyDefinitions() []definition {
	return []definition{
		{`^each item should include "([^"]*)"$`, func(w *world) any { return w.eachItemIncludes }},
		{`^"([^"]*)" should be valid GUIDs for each item$`, func(w *world) any { return w.eachValidGUID }},
		{`^"([^"]*)" should not be empty GUIDs for each item$`, func(w *world) any { return w.eachNonEmptyGUID }},
		{`^"([^"]*)" should be a valid ISO 8601 UTC timestamp for each item$`, func(w *world) any { return w.eachValidTimestamp }},
		{`^"([^"]*)" should be non-empty strings for each item$`, func(w *world) any { return w.eachNonBlank }},
		{`^the "([^"]*)" in the response should match the requested id$`, func(w *world) any { return w.recordMatchesRequestedID }},
		{`^each item's "([^"]*)" should equal "([^"]*)"$`, func(w *world) any { return w.eachEquals }},
		{`^each item's "([^"]*)" should match the requested id$`, func(w *world) any { return w.eachMatchesCreator }},
		{`^each item's "([^"]*)" should be within the requested range$`, func(w *world) any { return w.eachWithinRange }},
		{`^each item's "([^"]*)" should not be in the future$`, func(w *world) any { return w.eachNotInFuture }},
		{`^the response should include exactly "([^"]*)" items or fewer$`, func(w *world) any { return w.atMostItems }},
		{`^the items should be ordered by "([^"]*)" in descending order$`, func(w *world) any { return w.orderedDescending }},
	}
}

// records returns the decoded listing of the last history request, or the
// error that kept it from decoding.
func (w *world) records() ([]audit.HistoryRecord, error) {
	if w.historyErr != nil {
		return nil, w.historyErr
	}
	return w.history, nil
}

// eachRecord applies fn to field of every history record.
func (w *world) eachRecord(field string, fn func(string) error) error {
	records, err := w.records()
	if err != nil {
		return err
	}
	return check.EachRecord(audit.Fields, records, field, fn)
}

// eachField applies fn to every listed field of every history record.
func (w *world) eachField(list string, fn func(string) error) error {
	for _, field := range check.Fields(list) {
		if err := w.eachRecord(field, fn); err != nil {
			return err
		}
	}
	return nil
}

func (w *world) eachItemIncludes(list string) error {
	records, err := w.records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New(check.MsgHistoryDataExpected)
	}
	return check.RequireFields(audit.Fields, check.Fields(list))
}

func (w *world) eachValidGUID(list string) error {
	return w.eachField(list, check.ValidGUID)
}

func (w *world) eachNonEmptyGUID(list string) error {
	return w.eachField(list, check.NonEmptyGUID)
}

func (w *world) eachValidTimestamp(field string) error {
	return w.eachField(field, check.ValidTimestamp)
}

func (w *world) eachNonBlank(list string) error {
	return w.eachField(list, check.NonBlank)
}

func (w *world) recordMatchesRequestedID(field string) error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	rec, err := audit.DecodeRecord(resp)
	if err != nil {
		return err
	}
	get, err := audit.Fields.Lookup(field)
	if err != nil {
		return err
	}
	return expect(func(t assert.TestingT) {
		assert.Equal(t, w.historyID, get(rec), check.MsgHistoryIDMismatch)
	})
}

func (w *world) eachEquals(field, want string) error {
	return w.eachRecord(field, func(got string) error {
		return check.Equal(field, want, got)
	})
}

func (w *world) eachMatchesCreator(field string) error {
	return w.eachEquals(field, w.createdByID)
}

func (w *world) eachWithinRange(field string) error {
	from, to, err := check.ParseRange(w.rangeFrom, w.rangeTo)
	if err != nil {
		return err
	}
	return w.eachRecord(field, func(v string) error {
		return check.WithinRange(v, from, to)
	})
}

func (w *world) eachNotInFuture(field string) error {
	now := w.deps.Now().UTC()
	return w.eachRecord(field, func(v string) error {
		return check.NotInFuture(v, now)
	})
}

func (w *world) atMostItems(max string) error {
	n, err := strconv.Atoi(max)
	if err != nil {
		return fmt.Errorf("item limit %q is not a number", max)
	}
	records, err := w.records()
	if err != nil {
		return err
	}
	return check.AtMost(len(records), n)
}

func (w *world) orderedDescending(field string) error {
	records, err := w.records()
	if err != nil {
		return err
	}
	values, err := audit.Fields.Values(records, field)
	if err != nil {
		return err
	}
	return check.Descending(values)
}
