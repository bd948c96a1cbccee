package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// CodeDuplicateName is the OneNote error returned when a notebook or section
// with the same display name already exists.
const CodeDuplicateName = "20117"

// Error is any non-2xx response from Graph. It is surfaced to callers as is;
// nothing in this package retries.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Method     string
	Path       string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func parseError(resp *http.Response, method, path string) error {
	gerr := &Error{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Code != "" {
		gerr.Code = body.Error.Code
		gerr.Message = body.Error.Message
	} else {
		gerr.Message = http.StatusText(resp.StatusCode)
	}

	return gerr
}

// IsStatus reports whether err is a Graph error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.StatusCode == status
}

// IsDuplicateName reports whether err says the name is already taken.
func IsDuplicateName(err error) bool {
	var gerr *Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == CodeDuplicateName || gerr.StatusCode == http.StatusConflict
}
