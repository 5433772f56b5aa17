package etsy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

const (
	testClientID    = "test-keystring"
	testRedirectURI = "http://localhost:3003/oauth/redirect"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testCredentials() etsy.Credentials {
	return etsy.Credentials{
		ClientID:    testClientID,
		RedirectURI: testRedirectURI,
		Scopes:      []string{"listings_r", "transactions_r"},
	}
}

const tokenBody = `{"access_token":"12345678.access-abc","token_type":"Bearer",` +
	`"expires_in":3600,"refresh_token":"12345678.refresh-xyz"}`

func TestAuthorizer_AuthorizationURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		scopes    []string
		wantScope string
	}{
		{
			name:      "falls back to credential scopes",
			wantScope: "listings_r transactions_r",
		},
		{
			name:      "single scope",
			scopes:    []string{"email_r"},
			wantScope: "email_r",
		},
		{
			name:      "multiple scopes keep order",
			scopes:    []string{"shops_r", "listings_w", "listings_r"},
			wantScope: "shops_r listings_w listings_r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := etsy.NewAuthorizer(testCredentials())

			req, err := a.AuthorizationURL(tt.scopes...)
			require.NoError(t, err)

			u, err := url.Parse(req.URL)
			require.NoError(t, err)
			assert.Equal(t, "https", u.Scheme)
			assert.Equal(t, "www.etsy.com", u.Host)
			assert.Equal(t, "/oauth/connect", u.Path)
			assert.NotContains(t, u.RawQuery, " ")

			q := u.Query()
			assert.Equal(t, "code", q.Get("response_type"))
			assert.Equal(t, testClientID, q.Get("client_id"))
			assert.Equal(t, testRedirectURI, q.Get("redirect_uri"))
			assert.Equal(t, tt.wantScope, q.Get("scope"))
			assert.Equal(t, req.State, q.Get("state"))
			assert.Equal(t, req.PKCE.Challenge, q.Get("code_challenge"))
			assert.Equal(t, "S256", q.Get("code_challenge_method"))

			assert.Equal(t, etsy.AttemptURLIssued, a.State())
			assert.Equal(t, req.PKCE.Verifier, a.Verifier())
		})
	}
}

func TestAuthorizer_AuthorizationURL_ChallengeMatchesCachedVerifier(t *testing.T) {
	t.Parallel()

	a := etsy.NewAuthorizer(testCredentials())
	req, err := a.AuthorizationURL()
	require.NoError(t, err)

	assert.Equal(t, req.PKCE.Challenge, etsy.PKCEFromVerifier(a.Verifier()).Challenge)
}

func TestAuthorizer_AuthorizationURL_FreshPerAttempt(t *testing.T) {
	t.Parallel()

	a := etsy.NewAuthorizer(testCredentials())

	first, err := a.AuthorizationURL()
	require.NoError(t, err)
	second, err := a.AuthorizationURL()
	require.NoError(t, err)

	assert.NotEqual(t, first.State, second.State)
	assert.NotEqual(t, first.PKCE.Verifier, second.PKCE.Verifier)
	assert.NotEqual(t, first.PKCE.Challenge, second.PKCE.Challenge)
	assert.Equal(t, second.PKCE.Verifier, a.Verifier())
	assert.False(t, a.VerifyState(first.State))
	assert.True(t, a.VerifyState(second.State))
}

func TestAuthorizer_AuthorizationURL_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		creds      etsy.Credentials
		opts       []etsy.AuthOption
		errContain string
	}{
		{
			name:       "missing client id",
			creds:      etsy.Credentials{RedirectURI: testRedirectURI},
			errContain: "client id is required",
		},
		{
			name:       "missing redirect uri",
			creds:      etsy.Credentials{ClientID: testClientID},
			errContain: "redirect uri is required",
		},
		{
			name:       "entropy source fails",
			creds:      testCredentials(),
			opts:       []etsy.AuthOption{etsy.WithRandom(failingReader{})},
			errContain: "generating code verifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := etsy.NewAuthorizer(tt.creds, tt.opts...)
			_, err := a.AuthorizationURL()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContain)
			assert.Equal(t, etsy.AttemptUnstarted, a.State())
		})
	}
}

func TestAuthorizer_VerifyState(t *testing.T) {
	t.Parallel()

	a := etsy.NewAuthorizer(testCredentials())
	assert.False(t, a.VerifyState(""), "no state before the first URL")
	assert.False(t, a.VerifyState("anything"))

	req, err := a.AuthorizationURL()
	require.NoError(t, err)

	assert.True(t, a.VerifyState(req.State))
	assert.False(t, a.VerifyState(req.State+"x"))
	assert.False(t, a.VerifyState(""))
}

func TestAuthorizer_ExchangeCode(t *testing.T) {
	t.Parallel()

	var gotForm url.Values
	var gotUser, gotPass string
	var gotBasic bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		gotUser, gotPass, gotBasic = r.BasicAuth()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tokenBody))
	}))
	defer srv.Close()

	creds := testCredentials()
	creds.ClientSecret = "shared-secret"

	a := etsy.NewAuthorizer(creds,
		etsy.WithTokenURL(srv.URL),
		etsy.WithAuthNowFunc(func() time.Time { return fixedNow }),
	)

	req, err := a.AuthorizationURL()
	require.NoError(t, err)

	tok, err := a.ExchangeCode(context.Background(), "auth-code-1")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "auth-code-1", gotForm.Get("code"))
	assert.Equal(t, req.PKCE.Verifier, gotForm.Get("code_verifier"))
	assert.Equal(t, testClientID, gotForm.Get("client_id"))
	assert.Equal(t, testRedirectURI, gotForm.Get("redirect_uri"))
	assert.True(t, gotBasic)
	assert.Equal(t, testClientID, gotUser)
	assert.Equal(t, "shared-secret", gotPass)

	assert.Equal(t, "12345678.access-abc", tok.AccessToken)
	assert.Equal(t, "12345678.refresh-xyz", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.Equal(t, fixedNow.Add(time.Hour), tok.Expiry)
	assert.Equal(t, "12345678", tok.UserID())
	assert.JSONEq(t, tokenBody, tok.Raw.String())

	assert.Equal(t, etsy.AttemptTokenObtained, a.State())

	_, err = a.ExchangeCode(context.Background(), "auth-code-1")
	require.ErrorIs(t, err, etsy.ErrAttemptCompleted)
}

func TestAuthorizer_ExchangeCode_NoSecretNoBasicAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		_, _ = w.Write([]byte(tokenBody))
	}))
	defer srv.Close()

	a := etsy.NewAuthorizer(testCredentials(), etsy.WithTokenURL(srv.URL))
	_, err := a.AuthorizationURL()
	require.NoError(t, err)

	_, err = a.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
}

func TestAuthorizer_ExchangeCode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantCode   string
		wantDecode bool
	}{
		{
			name: "invalid grant",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_grant",
		},
		{
			name: "revoked client",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(
					`{"error":"invalid_client","error_description":"client is revoked"}`,
				))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_client",
		},
		{
			name: "server error with html body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`<html>bad gateway</html>`))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "success status with invalid JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantDecode: true,
		},
		{
			name: "success status without access token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
			},
			wantDecode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := etsy.NewAuthorizer(testCredentials(), etsy.WithTokenURL(srv.URL))
			_, err := a.AuthorizationURL()
			require.NoError(t, err)

			_, err = a.ExchangeCode(context.Background(), "code")
			require.Error(t, err)

			if tt.wantDecode {
				var decErr *etsy.DecodingError
				require.ErrorAs(t, err, &decErr)
			} else {
				var authErr *etsy.AuthenticationError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.wantStatus, authErr.StatusCode)
				assert.Equal(t, tt.wantCode, authErr.Code)
				assert.NotEmpty(t, authErr.Body)
				assert.Contains(t, err.Error(), "status")
			}

			// A failed exchange does not consume the attempt.
			assert.Equal(t, etsy.AttemptURLIssued, a.State())
		})
	}
}

func TestAuthorizer_ExchangeCode_InvalidGrantCarriesBody(t *testing.T) {
	t.Parallel()

	body := `{"error":"invalid_grant"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	a := etsy.NewAuthorizer(testCredentials(), etsy.WithTokenURL(srv.URL))
	_, err := a.AuthorizationURL()
	require.NoError(t, err)

	_, err = a.ExchangeCode(context.Background(), "expired-code")

	var authErr *etsy.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Equal(t, body, string(authErr.Body))
}

func TestAuthorizer_ExchangeCode_WithoutAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := etsy.NewAuthorizer(testCredentials(), etsy.WithTokenURL(srv.URL))

	_, err := a.ExchangeCode(context.Background(), "code")
	require.ErrorIs(t, err, etsy.ErrNoVerifier)

	_, err = a.ExchangeCode(context.Background(), "")
	require.Error(t, err)

	assert.Zero(t, calls.Load())
}

func TestAuthorizer_ExchangeCode_ResumedVerifier(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "persisted-verifier", r.PostForm.Get("code_verifier"))
		_, _ = w.Write([]byte(tokenBody))
	}))
	defer srv.Close()

	a := etsy.NewAuthorizer(testCredentials(),
		etsy.WithTokenURL(srv.URL),
		etsy.WithCodeVerifier("persisted-verifier"),
	)
	assert.Equal(t, etsy.AttemptURLIssued, a.State())

	_, err := a.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
}

func TestAuthorizer_RefreshToken(t *testing.T) {
	t.Parallel()

	body := `{"access_token":"12345678.new","token_type":"Bearer","expires_in":3600,` +
		`"refresh_token":"12345678.next","scope":"listings_r"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "12345678.old", r.PostForm.Get("refresh_token"))
		assert.Equal(t, testClientID, r.PostForm.Get("client_id"))
		assert.Empty(t, r.PostForm.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	// No authorization URL issued in this process.
	a := etsy.NewAuthorizer(testCredentials(),
		etsy.WithTokenURL(srv.URL),
		etsy.WithAuthNowFunc(func() time.Time { return fixedNow }),
	)

	tok, err := a.RefreshToken(context.Background(), "12345678.old")
	require.NoError(t, err)

	assert.JSONEq(t, body, tok.Raw.String())
	m, err := tok.Raw.Map()
	require.NoError(t, err)
	assert.Equal(t, "listings_r", m["scope"])
	assert.Equal(t, "12345678.new", tok.AccessToken)
	assert.Equal(t, fixedNow.Add(time.Hour), tok.Expiry)
	assert.Equal(t, etsy.AttemptUnstarted, a.State())
}

func TestAuthorizer_RefreshToken_Errors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token expired"}`))
	}))
	defer srv.Close()

	a := etsy.NewAuthorizer(testCredentials(), etsy.WithTokenURL(srv.URL))

	_, err := a.RefreshToken(context.Background(), "")
	require.ErrorIs(t, err, etsy.ErrMissingRefreshToken)
	assert.Zero(t, calls.Load())

	_, err = a.RefreshToken(context.Background(), "stale")
	var authErr *etsy.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "refresh token expired", authErr.Description)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthorizer_TransportError(t *testing.T) {
	t.Parallel()

	a := etsy.NewAuthorizer(testCredentials(), etsy.WithTokenURL("http://127.0.0.1:1"))

	_, err := a.RefreshToken(context.Background(), "rt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing token request")

	var authErr *etsy.AuthenticationError
	assert.False(t, errors.As(err, &authErr))
}

func TestAttemptState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unstarted", etsy.AttemptUnstarted.String())
	assert.Equal(t, "url_issued", etsy.AttemptURLIssued.String())
	assert.Equal(t, "token_obtained", etsy.AttemptTokenObtained.String())
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestAuthenticationError_Message(t *testing.T) {
	t.Parallel()

	err := &etsy.AuthenticationError{StatusCode: 500, Body: []byte("boom")}
	assert.True(t, strings.Contains(err.Error(), "status 500"))
	assert.Contains(t, err.Error(), "boom")
}
