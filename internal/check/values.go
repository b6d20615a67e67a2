package check

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidGUID fails unless value parses as a GUID.
func ValidGUID(value string) error {
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %q", MsgInvalidGUID, value)
	}
	return nil
}

// NonEmptyGUID fails unless value is a valid GUID other than the all-zero one.
func NonEmptyGUID(value string) error {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %q", MsgInvalidGUID, value)
	}
	if id == uuid.Nil {
		return errors.New(MsgEmptyGUID)
	}
	return nil
}

// Timestamps without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp or date.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q", MsgInvalidTimestamp, value)
}

// ValidTimestamp fails unless value parses as a timestamp.
func ValidTimestamp(value string) error {
	_, err := ParseTimestamp(value)
	return err
}

// NotInFuture fails when value is after now. Equal instants pass.
func NotInFuture(value string, now time.Time) error {
	t, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	if t.After(now) {
		return fmt.Errorf("%s: %s > %s", MsgTimestampInFuture, t.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return nil
}

// NonBlank fails when value is empty or whitespace.
func NonBlank(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(MsgEmptyString)
	}
	return nil
}

// WithinRange fails unless from <= value <= to.
func WithinRange(value string, from, to time.Time) error {
	t, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	if t.Before(from) || t.After(to) {
		return fmt.Errorf("%s: %s not in [%s, %s]", MsgCreatedAtOutOfRange,
			t.Format(time.RFC3339), from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

// ParseRange parses both bounds and fails when from is after to.
func ParseRange(from, to string) (time.Time, time.Time, error) {
	f, err := ParseTimestamp(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := ParseTimestamp(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if f.After(t) {
		return time.Time{}, time.Time{}, errors.New(InvalidDateRange(from, to))
	}
	return f, t, nil
}

// Equal fails when got differs from want.
func Equal(field, want, got string) error {
	if want != got {
		return fmt.Errorf("%s: %s expected %q, got %q", MsgFieldMismatch, field, want, got)
	}
	return nil
}

// Descending fails unless values[i] >= values[i+1] for every adjacent pair.
// Values compare as timestamps when both parse, then as numbers, then as text.
func Descending(values []string) error {
	for i := 0; i+1 < len(values); i++ {
		if compare(values[i], values[i+1]) < 0 {
			return fmt.Errorf("%s: item %d (%s) < item %d (%s)", MsgSortOrderIncorrect, i, values[i], i+1, values[i+1])
		}
	}
	return nil
}

func compare(a, b string) int {
	if ta, err := ParseTimestamp(a); err == nil {
		if tb, err := ParseTimestamp(b); err == nil {
			return ta.Compare(tb)
		}
	}
	if fa, err := strconv.ParseFloat(a, 64); err == nil {
		if fb, err := strconv.ParseFloat(b, 64); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a, b)
}
