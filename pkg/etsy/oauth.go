package etsy

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
)

const (
	// DefaultAuthURL is the browser-facing Etsy consent page.
	DefaultAuthURL = "https://www.etsy.com/oauth/connect"
	// DefaultTokenURL is the Etsy OAuth token endpoint.
	DefaultTokenURL = "https://api.etsy.com/v3/public/oauth/token" //nolint:gosec // not a credential
)

// Credentials identify an Etsy app. ClientID is the app keystring.
// ClientSecret is optional; when set it is sent as HTTP Basic auth on token
// requests.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// AttemptState tracks one authorization attempt.
type AttemptState int

// Attempt states. There is no transition back: a new attempt starts with a
// new call to AuthorizationURL.
const (
	AttemptUnstarted AttemptState = iota
	AttemptURLIssued
	AttemptTokenObtained
)

func (s AttemptState) String() string {
	switch s {
	case AttemptURLIssued:
		return "url_issued"
	case AttemptTokenObtained:
		return "token_obtained"
	default:
		return "unstarted"
	}
}

// AuthRequest is what the caller needs to send the user to Etsy and later
// match the redirect. Keep PKCE.Verifier if the process may restart before
// the code arrives.
type AuthRequest struct {
	URL   string
	State string
	PKCE  PKCE
}

// Authorizer drives the OAuth2 authorization code flow with PKCE against
// Etsy. One instance tracks one attempt at a time; use separate instances
// for concurrent logins.
type Authorizer struct {
	creds    Credentials
	authURL  string
	tokenURL string
	client   *http.Client
	log      *slog.Logger
	nowFunc  func() time.Time
	random   io.Reader

	mu       sync.Mutex
	verifier string
	state    string
	attempt  AttemptState
}

// AuthOption configures the Authorizer.
type AuthOption func(*Authorizer)

// WithAuthURL overrides the default Etsy authorization endpoint.
func WithAuthURL(u string) AuthOption {
	return func(a *Authorizer) {
		a.authURL = u
	}
}

// WithTokenURL overrides the default Etsy token endpoint.
func WithTokenURL(u string) AuthOption {
	return func(a *Authorizer) {
		a.tokenURL = u
	}
}

// WithAuthHTTPClient overrides the default HTTP client.
func WithAuthHTTPClient(c *http.Client) AuthOption {
	return func(a *Authorizer) {
		a.client = c
	}
}

// WithAuthLogger sets the logger.
func WithAuthLogger(l *slog.Logger) AuthOption {
	return func(a *Authorizer) {
		a.log = l
	}
}

// WithAuthNowFunc overrides the time function for testing.
func WithAuthNowFunc(f func() time.Time) AuthOption {
	return func(a *Authorizer) {
		a.nowFunc = f
	}
}

// WithRandom overrides the entropy source used for PKCE verifiers.
func WithRandom(r io.Reader) AuthOption {
	return func(a *Authorizer) {
		a.random = r
	}
}

// WithCodeVerifier resumes an attempt whose authorization URL was issued by
// another process. ExchangeCode will send this verifier.
func WithCodeVerifier(verifier string) AuthOption {
	return func(a *Authorizer) {
		if verifier == "" {
			return
		}
		a.verifier = verifier
		a.attempt = AttemptURLIssued
	}
}

// NewAuthorizer creates an Authorizer for the given app credentials.
func NewAuthorizer(creds Credentials, opts ...AuthOption) *Authorizer {
	a := &Authorizer{
		creds:    creds,
		authURL:  DefaultAuthURL,
		tokenURL: DefaultTokenURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      discardLogger(),
		nowFunc:  time.Now,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authorizer) oauthConfig(scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = a.creds.Scopes
	}
	return &oauth2.Config{
		ClientID:    a.creds.ClientID,
		RedirectURL: a.creds.RedirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.authURL,
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL starts a new attempt: it generates a state token and a
// PKCE pair, caches the verifier, and returns the consent URL. Scopes
// default to the credential scopes. No network call is made.
func (a *Authorizer) AuthorizationURL(scopes ...string) (*AuthRequest, error) {
	if a.creds.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if a.creds.RedirectURI == "" {
		return nil, errors.New("redirect uri is required")
	}

	pkce, err := newPKCE(a.random)
	if err != nil {
		return nil, err
	}
	state := uuid.NewString()

	cfg := a.oauthConfig(scopes)
	u := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce.Verifier))

	a.mu.Lock()
	a.verifier = pkce.Verifier
	a.state = state
	a.attempt = AttemptURLIssued
	a.mu.Unlock()

	a.log.Debug("authorization url issued", "scopes", strings.Join(cfg.Scopes, " "))

	return &AuthRequest{URL: u, State: state, PKCE: pkce}, nil
}

// State returns where the current attempt is.
func (a *Authorizer) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempt
}

// Verifier returns the cached PKCE verifier, or "" before the first URL.
func (a *Authorizer) Verifier() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.verifier
}

// VerifyState reports whether state matches the one issued with the last
// authorization URL.
func (a *Authorizer) VerifyState(state string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.state), []byte(state)) == 1
}

// ExchangeCode trades the authorization code from the redirect for a token
// pair, proving possession with the cached verifier. A failed exchange
// leaves the attempt open so the caller may try again.
func (a *Authorizer) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.attempt {
	case AttemptUnstarted:
		return nil, ErrNoVerifier
	case AttemptTokenObtained:
		return nil, ErrAttemptCompleted
	}
	if a.verifier == "" {
		return nil, ErrNoVerifier
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {a.creds.ClientID},
		"redirect_uri":  {a.creds.RedirectURI},
		"code":          {code},
		"code_verifier": {a.verifier},
	}

	tok, err := a.tokenRequest(ctx, "authorization_code", form)
	if err != nil {
		return nil, err
	}

	a.attempt = AttemptTokenObtained
	return tok, nil
}

// RefreshToken trades a refresh token for a new token. It does not depend
// on any authorization attempt.
func (a *Authorizer) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {a.creds.ClientID},
		"refresh_token": {refreshToken},
	}

	return a.tokenRequest(ctx, "refresh_token", form)
}

func (a *Authorizer) tokenRequest(
	ctx context.Context,
	grantType string,
	form url.Values,
) (tok *Token, err error) {
	ctx, span := tracer.Start(ctx, "etsy.oauth.token",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth.grant_type", grantType)),
	)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.TokenRequestsTotal.WithLabelValues(grantType, outcome).Inc()
		span.End()
	}()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if a.creds.ClientSecret != "" {
		req.SetBasicAuth(a.creds.ClientID, a.creds.ClientSecret)
	}

	issuedAt := a.nowFunc()

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		authErr := newAuthenticationError(resp.StatusCode, body)
		a.log.Warn("token request rejected",
			"grant_type", grantType,
			"status", resp.StatusCode,
			"error", authErr.Code,
		)
		return nil, authErr
	}

	tok, err = parseToken("token", body, issuedAt)
	if err != nil {
		return nil, err
	}

	a.log.Info("token obtained", "grant_type", grantType, "token", tok)
	return tok, nil
}
