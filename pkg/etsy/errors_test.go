package etsy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAuthenticationError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantDesc string
		wantMsg  string
	}{
		{
			name:     "oauth error with description",
			body:     `{"error":"invalid_grant","error_description":"refresh token expired"}`,
			wantCode: "invalid_grant",
			wantDesc: "refresh token expired",
			wantMsg:  "token request failed (status 400): invalid_grant - refresh token expired",
		},
		{
			name:     "oauth error only",
			body:     `{"error":"invalid_client"}`,
			wantCode: "invalid_client",
			wantMsg:  "token request failed (status 400): invalid_client",
		},
		{
			name:    "non json body",
			body:    `upstream timeout`,
			wantMsg: "token request failed (status 400): upstream timeout",
		},
		{
			name:    "error field is not a string",
			body:    `{"error":{"code":7}}`,
			wantMsg: `token request failed (status 400): {"error":{"code":7}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := newAuthenticationError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantDesc, err.Description)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, []byte(tt.body), err.Body)
		})
	}
}

func TestNewAPIRequestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantMsg     string
		notFound    bool
	}{
		{
			name:        "etsy error field",
			status:      http.StatusNotFound,
			body:        `{"error":"Listing 42 not found"}`,
			wantMessage: "Listing 42 not found",
			wantMsg:     "etsy API error (status 404) GET /v3/application/listings/42: Listing 42 not found",
			notFound:    true,
		},
		{
			name:    "raw body fallback",
			status:  http.StatusBadGateway,
			body:    `bad gateway`,
			wantMsg: "etsy API error (status 502) GET /v3/application/listings/42: bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := newAPIRequestError(http.MethodGet, "/v3/application/listings/42", tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.notFound, err.IsNotFound())
		})
	}
}
