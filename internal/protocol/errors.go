package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotYetRequested is returned when a response slot is read before any call was made.
var ErrNotYetRequested = errors.New("no request has been made yet")

// AuthError reports a failed or malformed token fetch.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("failed to get access token")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ". Status: %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ", Error: %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError reports a non-success status from a domain call. Response holds the
// captured failure so callers can still inspect it.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Response   *Response
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API request failed. Status: %d, Error: %s", e.Op, e.StatusCode, e.Message)
}

// NewAPIError builds an APIError from a captured response, pulling the server's
// error message out of the body when it is JSON.
func NewAPIError(op string, resp *Response) *APIError {
	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    ErrorMessage(resp),
		Response:   resp,
	}
}

// DeserializationError reports a body that does not match the expected shape.
type DeserializationError struct {
	Target string
	Err    error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Target, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// Decode unmarshals a JSON response body into v.
func Decode(resp *Response, target string, v any) error {
	if resp == nil || len(strings.TrimSpace(string(resp.Body))) == 0 {
		return &DeserializationError{Target: target, Err: errors.New("response content was empty")}
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &DeserializationError{Target: target, Err: err}
	}
	return nil
}

// ErrorMessage extracts a human readable error from a failed response.
func ErrorMessage(resp *Response) string {
	if resp == nil {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.Title != "":
			return envelope.Title
		}
		switch v := envelope.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	body := strings.TrimSpace(string(resp.Body))
	if body == "" {
		return resp.Status
	}
	if len(body) > 200 {
		body = body[:197] + "..."
	}
	return body
}
