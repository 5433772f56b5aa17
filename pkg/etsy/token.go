package etsy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const defaultRefreshBuffer = 60 * time.Second

// Token is a response from the Etsy token endpoint. Raw holds the decoded
// response exactly as the provider sent it.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Raw          Document  `json:"raw"`
}

// parseToken decodes a token endpoint body. issuedAt anchors Expiry.
func parseToken(op string, body []byte, issuedAt time.Time) (*Token, error) {
	raw, err := ParseDocument(body)
	if err != nil {
		return nil, &DecodingError{Op: op, Body: body, Err: err}
	}
	if raw.IsEmpty() {
		return nil, &DecodingError{Op: op, Body: body, Err: errors.New("empty body")}
	}

	var tr struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := raw.Decode(&tr); err != nil {
		return nil, &DecodingError{Op: op, Body: body, Err: err}
	}
	if tr.AccessToken == "" {
		return nil, &DecodingError{Op: op, Body: body, Err: errors.New("missing access_token")}
	}

	t := &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
		Raw:          raw,
	}
	if tr.ExpiresIn > 0 {
		t.Expiry = issuedAt.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return t, nil
}

// ExpiresWithin reports whether the access token expires before now+d.
// A token without an expiry never does.
func (t *Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return !now.Add(d).Before(t.Expiry)
}

// UserID returns the numeric Etsy user id that prefixes access tokens
// ("12345678.abc..."), or "" when the token has no such prefix.
func (t *Token) UserID() string {
	id, _, ok := strings.Cut(t.AccessToken, ".")
	if !ok {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

// OAuth2 converts the token for use with golang.org/x/oauth2 transports.
func (t *Token) OAuth2() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
		ExpiresIn:    t.ExpiresIn,
	}
	if m, err := t.Raw.Map(); err == nil && len(m) > 0 {
		tok = tok.WithExtra(m)
	}
	return tok
}

// LogValue keeps secrets out of logs.
func (t *Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_type", t.TokenType),
		slog.Time("expiry", t.Expiry),
		slog.String("user_id", t.UserID()),
	)
}

// StaticToken is a TokenProvider for a fixed access token.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", errors.New("static access token is empty")
	}
	return string(s), nil
}

// Refresher exchanges a refresh token for a new token. *Authorizer
// implements it.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
}

// RefreshingTokenSource hands out the cached access token and refreshes it
// when it is expired or within the refresh buffer of expiry. Safe for
// concurrent use.
type RefreshingTokenSource struct {
	refresher Refresher
	buffer    time.Duration
	onRefresh func(context.Context, *Token) error
	log       *slog.Logger

	mu      sync.Mutex
	token   *Token
	nowFunc func() time.Time
}

// TokenSourceOption configures a RefreshingTokenSource.
type TokenSourceOption func(*RefreshingTokenSource)

// WithRefreshBuffer sets how long before expiry a refresh is triggered.
func WithRefreshBuffer(d time.Duration) TokenSourceOption {
	return func(s *RefreshingTokenSource) {
		s.buffer = d
	}
}

// WithOnRefresh registers a hook called with every newly obtained token,
// typically to persist it. A hook error fails the Token call.
func WithOnRefresh(fn func(context.Context, *Token) error) TokenSourceOption {
	return func(s *RefreshingTokenSource) {
		s.onRefresh = fn
	}
}

// WithTokenSourceNowFunc overrides the time function for testing.
func WithTokenSourceNowFunc(f func() time.Time) TokenSourceOption {
	return func(s *RefreshingTokenSource) {
		s.nowFunc = f
	}
}

// WithTokenSourceLogger sets the logger.
func WithTokenSourceLogger(l *slog.Logger) TokenSourceOption {
	return func(s *RefreshingTokenSource) {
		s.log = l
	}
}

// NewRefreshingTokenSource starts from an existing token, usually one loaded
// from storage.
func NewRefreshingTokenSource(
	refresher Refresher,
	initial *Token,
	opts ...TokenSourceOption,
) *RefreshingTokenSource {
	s := &RefreshingTokenSource{
		refresher: refresher,
		buffer:    defaultRefreshBuffer,
		token:     initial,
		nowFunc:   time.Now,
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token implements TokenProvider.
func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	t, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Current returns the cached token, refreshing first if needed.
func (s *RefreshingTokenSource) Current(ctx context.Context) (*Token, error) {
	return s.current(ctx)
}

func (s *RefreshingTokenSource) current(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil, errors.New("no token available")
	}
	if s.token.AccessToken != "" && !s.token.ExpiresWithin(s.nowFunc(), s.buffer) {
		return s.token, nil
	}
	return s.refreshLocked(ctx)
}

func (s *RefreshingTokenSource) refreshLocked(ctx context.Context) (*Token, error) {
	if s.token.RefreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	s.log.Debug("refreshing access token", "expiry", s.token.Expiry)

	next, err := s.refresher.RefreshToken(ctx, s.token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing access token: %w", err)
	}
	if next.RefreshToken == "" {
		next.RefreshToken = s.token.RefreshToken
	}

	if s.onRefresh != nil {
		if err := s.onRefresh(ctx, next); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}

	s.token = next
	return next, nil
}

// OAuth2 adapts the source to oauth2.TokenSource, binding ctx for refreshes.
func (s *RefreshingTokenSource) OAuth2(ctx context.Context) oauth2.TokenSource {
	return oauth2TokenSource{ctx: ctx, src: s}
}

type oauth2TokenSource struct {
	ctx context.Context //nolint:containedctx // oauth2.TokenSource has no ctx parameter
	src *RefreshingTokenSource
}

func (o oauth2TokenSource) Token() (*oauth2.Token, error) {
	t, err := o.src.current(o.ctx)
	if err != nil {
		return nil, err
	}
	return t.OAuth2(), nil
}
