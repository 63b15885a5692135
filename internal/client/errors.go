package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is returned by Do for any non-2xx response.
type Error struct {
	StatusCode int
	StatusText string
	// Detail is the backend's detail field, or the whole payload
	// rendered as text when no detail is present.
	Detail  string
	Payload any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s\n%s", e.StatusCode, e.StatusText, e.Detail)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the backend.
func IsConflict(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

func newError(resp *http.Response, data any) *Error {
	return &Error{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Detail:     detailOf(data),
		Payload:    data,
	}
}

// detailOf prefers a truthy "detail" member; otherwise the payload itself.
func detailOf(data any) string {
	if obj, ok := data.(map[string]any); ok {
		if detail, ok := obj["detail"]; ok && truthy(detail) {
			if s, ok := detail.(string); ok {
				return s
			}
			return marshalText(detail)
		}
	}
	if s, ok := data.(string); ok {
		return s
	}
	return marshalText(data)
}

func marshalText(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}
