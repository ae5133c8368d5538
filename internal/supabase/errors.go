package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an operation that expected session
	// material in the response got none.
	ErrNoSession = errors.New("no session data returned")

	// ErrUnknownProvider is returned for an OAuth provider name outside the
	// configured set.
	ErrUnknownProvider = errors.New("unknown oauth provider")
)

// APIError is a rejected request as reported by the Supabase Auth API.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int
	// Code is the provider's stable error code, when present.
	Code string
	// Message is the human-readable message from the provider.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s)", e.Message, e.Code)
	}

	return fmt.Sprintf("supabase: %s", e.Message)
}

// apiErrorBody covers the two error shapes the auth API uses: the token
// endpoint answers {"error","error_description"}, everything else
// {"code","error_code","msg"}.
type apiErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// parseAPIError maps a non-2xx response body to an APIError.
func parseAPIError(status int, body []byte) *APIError {
	var eb apiErrorBody

	apiErr := &APIError{Status: status}

	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = fmt.Sprintf("unexpected response (status %d)", status)
		return apiErr
	}

	apiErr.Code = eb.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = eb.Error
	}

	switch {
	case eb.Msg != "":
		apiErr.Message = eb.Msg
	case eb.ErrorDescription != "":
		apiErr.Message = eb.ErrorDescription
	case eb.Message != "":
		apiErr.Message = eb.Message
	default:
		apiErr.Message = fmt.Sprintf("request rejected (status %d)", status)
	}

	return apiErr
}
