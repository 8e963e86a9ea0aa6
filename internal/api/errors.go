package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	dErrors "forkful/pkg/domain-errors"
)

// Kind classifies a failed call for the slices.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindDecode       Kind = "decode"
)

// Error is the normalized failure of one API call. Message is what the server
// said, or a generic description when it said nothing usable.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

// Unwrap exposes the coded form so dErrors.Is and dErrors.HasCode work on
// client failures.
func (e *Error) Unwrap() error {
	return &dErrors.Error{Code: e.Code(), Message: e.Message, Err: e.Err}
}

// Code maps the failure onto a domain error code.
func (e *Error) Code() dErrors.Code {
	switch e.Kind {
	case KindNetwork:
		var te interface{ Timeout() bool }
		if errors.As(e.Err, &te) && te.Timeout() {
			return dErrors.CodeTimeout
		}
		return dErrors.CodeNetwork
	case KindUnauthorized:
		return dErrors.CodeUnauthorized
	case KindDecode, KindServer:
		return dErrors.CodeInternal
	}
	switch e.Status {
	case http.StatusForbidden:
		return dErrors.CodeForbidden
	case http.StatusNotFound:
		return dErrors.CodeNotFound
	case http.StatusConflict:
		return dErrors.CodeConflict
	case http.StatusBadRequest:
		return dErrors.CodeBadRequest
	default:
		return dErrors.CodeValidation
	}
}

// AsError returns the *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is an authorization failure that
// survived the refresh protocol.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindUnauthorized
}

// Message returns the text a slice should display for err. Validation and
// server errors surface the server's own wording; network and decode failures
// fall back to the caller's generic text.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	apiErr, ok := AsError(err)
	if !ok {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Message != "" {
			return de.Message
		}
		return fallback
	}
	switch apiErr.Kind {
	case KindNetwork, KindDecode:
		return fallback
	}
	if apiErr.Message == "" {
		return fallback
	}
	return apiErr.Message
}

func classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

func newStatusError(method, path string, status int, body []byte) *Error {
	msg := serverMessage(body)
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}
	return &Error{
		Kind:    classify(status),
		Status:  status,
		Message: msg,
		Method:  method,
		Path:    path,
	}
}

// serverMessage extracts a human-readable message from an error payload. The
// backend uses {"error": ...}, {"message": ...}, {"detail": ...},
// {"non_field_errors": [...]}, or per-field lists such as {"quantity": [...]}.
func serverMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "detail", "non_field_errors"} {
		if msg := firstString(payload[key]); msg != "" {
			return msg
		}
	}
	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if msg := firstString(payload[field]); msg != "" {
			return field + ": " + msg
		}
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
