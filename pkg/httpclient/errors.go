package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUpstream marks a 5xx reply from a remote service.
var ErrUpstream = errors.New("upstream server error")

// APIError is a non-2xx reply decoded from a remote service.
//
// Google style bodies ({"error":{"code":400,"message":"INVALID_ID_TOKEN"}})
// and envelope style bodies ({"error":{"code":"NOT_FOUND","message":"..."}})
// are both understood; anything else is kept verbatim in Message.
type APIError struct {
	Service string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned %d (%s): %s", e.Service, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Message)
}

// IsClientError reports whether the remote rejected the request itself.
func (e *APIError) IsClientError() bool {
	return IsClientError(e.Status)
}

// Unwrap lets errors.Is(err, ErrUpstream) match 5xx replies.
func (e *APIError) Unwrap() error {
	if e.Status >= 500 {
		return ErrUpstream
	}
	return nil
}

type errorBody struct {
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
		Status  string          `json:"status"`
	} `json:"error"`
}

// ParseResponseError drains and closes the body of a non-2xx response and
// returns it as an *APIError.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	apiErr := &APIError{Service: service, Status: resp.StatusCode}

	var body errorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != nil {
		apiErr.Message = body.Error.Message
		apiErr.Code = body.Error.Status
		var code string
		if json.Unmarshal(body.Error.Code, &code) == nil {
			apiErr.Code = code
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

// IsClientError returns true for 4xx statuses.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
