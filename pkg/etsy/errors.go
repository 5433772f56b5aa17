package etsy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoVerifier is returned by ExchangeCode when no authorization URL has
	// been issued and no verifier was supplied with WithCodeVerifier.
	ErrNoVerifier = errors.New("no PKCE verifier for this authorization attempt")

	// ErrAttemptCompleted is returned by ExchangeCode when the current
	// authorization attempt already produced a token.
	ErrAttemptCompleted = errors.New("authorization attempt already completed")

	// ErrMissingRefreshToken is returned when a refresh is requested without a
	// refresh token.
	ErrMissingRefreshToken = errors.New("refresh token is required")
)

// AuthenticationError is a non-success response from the OAuth token endpoint.
type AuthenticationError struct {
	StatusCode  int
	Body        []byte
	Code        string // OAuth "error" field, when present
	Description string // OAuth "error_description" field, when present
}

func (e *AuthenticationError) Error() string {
	if e.Code != "" {
		if e.Description != "" {
			return fmt.Sprintf(
				"token request failed (status %d): %s - %s",
				e.StatusCode, e.Code, e.Description,
			)
		}
		return fmt.Sprintf("token request failed (status %d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("token request failed (status %d): %s", e.StatusCode, string(e.Body))
}

func newAuthenticationError(status int, body []byte) *AuthenticationError {
	return &AuthenticationError{
		StatusCode:  status,
		Body:        body,
		Code:        gjson.GetBytes(body, "error").Str,
		Description: gjson.GetBytes(body, "error_description").Str,
	}
}

// APIRequestError is a non-success response from an Etsy resource endpoint.
type APIRequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Message    string // Etsy "error" field, when present
}

func (e *APIRequestError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Body)
	}
	return fmt.Sprintf("etsy API error (status %d) %s %s: %s", e.StatusCode, e.Method, e.Path, msg)
}

// IsNotFound reports whether the resource does not exist.
func (e *APIRequestError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newAPIRequestError(method, path string, status int, body []byte) *APIRequestError {
	return &APIRequestError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       body,
		Message:    gjson.GetBytes(body, "error").Str,
	}
}

// DecodingError means a response body was not valid JSON or lacked a
// required field.
type DecodingError struct {
	Op   string
	Body []byte
	Err  error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Op, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
