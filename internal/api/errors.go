package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("not authenticated")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap lets errors.Is match the status sentinels.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// newError builds an Error from a response body. The server replies with
// {"detail": "..."} where detail is a string, or a list of validation issues.
func newError(method, path string, status int, body []byte) *Error {
	e := &Error{StatusCode: status, Method: method, Path: path}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) != nil || len(payload.Detail) == 0 {
		e.Detail = http.StatusText(status)
		return e
	}

	var s string
	if json.Unmarshal(payload.Detail, &s) == nil {
		e.Detail = s
		return e
	}

	var issues []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if json.Unmarshal(payload.Detail, &issues) == nil && len(issues) > 0 {
		e.Detail = issues[0].Msg
		if len(issues[0].Loc) > 0 {
			e.Detail = fmt.Sprintf("%v: %s", issues[0].Loc[len(issues[0].Loc)-1], issues[0].Msg)
		}
		return e
	}

	e.Detail = string(payload.Detail)
	return e
}
