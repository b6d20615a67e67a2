package check

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/sadopc/apiprobe/internal/protocol"
)

// ErrNoResponse is returned by response checks before any request was made.
var ErrNoResponse = errors.New("no response captured")

// StatusCode fails unless resp has the expected status.
func StatusCode(resp *protocol.Response, want int) error {
	if resp == nil {
		return ErrNoResponse
	}
	if resp.StatusCode != want {
		return errors.New(StatusCodeMismatch(want, resp.StatusCode))
	}
	return nil
}

// ContentType fails unless the media type of resp matches want. Parameters
// such as charset are ignored.
func ContentType(resp *protocol.Response, want string) error {
	if resp == nil {
		return ErrNoResponse
	}
	got := resp.ContentType
	if got == "" && resp.Headers != nil {
		got = resp.Headers.Get("Content-Type")
	}
	media, _, err := mime.ParseMediaType(got)
	if err != nil {
		media = strings.TrimSpace(strings.SplitN(got, ";", 2)[0])
	}
	wantMedia, _, err := mime.ParseMediaType(want)
	if err != nil {
		wantMedia = strings.TrimSpace(want)
	}
	if !strings.EqualFold(media, wantMedia) {
		return fmt.Errorf(MsgContentTypeInvalid+" (got %q)", want, got)
	}
	return nil
}

// JSONArray decodes body as a top-level JSON array.
func JSONArray(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New(MsgHistoryNotJSONArray)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%s: %v", MsgHistoryNotJSONArray, err)
	}
	return items, nil
}

// EmptyJSONArray fails unless body is a JSON array with no elements.
func EmptyJSONArray(body []byte) error {
	items, err := JSONArray(body)
	if err != nil {
		return err
	}
	if len(items) != 0 {
		return fmt.Errorf("%s (%d items)", MsgHistoryEmptyExpected, len(items))
	}
	return nil
}

// BodyIncludes fails unless every field appears as a quoted property name in body.
func BodyIncludes(body []byte, fields []string) error {
	for _, f := range fields {
		if !bytes.Contains(body, []byte(strconv.Quote(f))) {
			return errors.New(FieldMissing(f))
		}
	}
	return nil
}

// NoVerbatimProperty fails when the quoted name appears anywhere in body.
func NoVerbatimProperty(body []byte, name string) error {
	if bytes.Contains(body, []byte(strconv.Quote(name))) {
		return fmt.Errorf("%s: %q", MsgPascalCaseFound, name)
	}
	return nil
}

// AtMost fails when count exceeds max.
func AtMost(count, max int) error {
	if count > max {
		return fmt.Errorf("%s: %d > %d", MsgPaginationCountMismatch, count, max)
	}
	return nil
}

// Pagination header names.
const (
	HeaderPage     = "X-Page"
	HeaderPageSize = "X-Page-Size"
)

// PaginationMetadata fails unless resp reports the given page and size, either
// through X-Page / X-Page-Size headers or a {"page", "size"} envelope body.
func PaginationMetadata(resp *protocol.Response, page, size int) error {
	if resp == nil {
		return ErrNoResponse
	}

	if resp.Headers != nil && resp.Headers.Get(HeaderPage) != "" {
		gotPage, err1 := strconv.Atoi(resp.Headers.Get(HeaderPage))
		gotSize, err2 := strconv.Atoi(resp.Headers.Get(HeaderPageSize))
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%s: unreadable headers %s=%q %s=%q", MsgPaginationMetadata,
				HeaderPage, resp.Headers.Get(HeaderPage), HeaderPageSize, resp.Headers.Get(HeaderPageSize))
		}
		return comparePage(gotPage, gotSize, page, size)
	}

	var envelope struct {
		Page *int `json:"page"`
		Size *int `json:"size"`
	}
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &envelope) == nil &&
		envelope.Page != nil && envelope.Size != nil {
		return comparePage(*envelope.Page, *envelope.Size, page, size)
	}
	return errors.New(MsgPaginationMetadata)
}

func comparePage(gotPage, gotSize, page, size int) error {
	if gotPage != page || gotSize != size {
		return fmt.Errorf("%s: expected page %d size %d, got page %d size %d",
			MsgPaginationMetadata, page, size, gotPage, gotSize)
	}
	return nil
}
