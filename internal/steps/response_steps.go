package steps

import (
	"fmt"
	"strconv"

	"github.com/sadopc/apiprobe/internal/check"
)

func responseDefinitions() []definition {
	return []definition{
		{`^the response status code should be (\d+)$`, func(w *world) any { return w.statusCodeIs }},
		{`^the Content-Type header should be "([^"]*)"$`, func(w *world) any { return w.contentTypeIs }},
		{`^the response body should be a JSON array$`, func(w *world) any { return w.bodyIsJSONArray }},
		{`^the response body should be an empty JSON array$`, func(w *world) any { return w.bodyIsEmptyJSONArray }},
		{`^the response body should include "([^"]*)"$`, func(w *world) any { return w.bodyIncludes }},
		{`^pagination metadata should indicate page "([^"]*)" and size "([^"]*)"$`, func(w *world) any { return w.paginationIs }},
		{`^no PascalCase properties like "([^"]*)" should be present$`, func(w *world) any { return w.noPascalCase }},
	}
}

func (w *world) statusCodeIs(code int) error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	return check.StatusCode(resp, code)
}

func (w *world) contentTypeIs(want string) error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	return check.ContentType(resp, want)
}

func (w *world) bodyIsJSONArray() error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	_, err = check.JSONArray(resp.Body)
	return err
}

func (w *world) bodyIsEmptyJSONArray() error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	return check.EmptyJSONArray(resp.Body)
}

func (w *world) bodyIncludes(list string) error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	return check.BodyIncludes(resp.Body, check.Fields(list))
}

func (w *world) paginationIs(page, size string) error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	p, err1 := strconv.Atoi(page)
	s, err2 := strconv.Atoi(size)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("page %q and size %q must be numbers", page, size)
	}
	return check.PaginationMetadata(resp, p, s)
}

func (w *world) noPascalCase(name string) error {
	resp, err := w.lastResponse()
	if err != nil {
		return err
	}
	return check.NoVerbatimProperty(resp.Body, name)
}
