package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/etsy-v3/internal/store"
	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

// ProfileRefresher refreshes a stored profile on demand.
type ProfileRefresher interface {
	RefreshProfile(ctx context.Context, profile string) (*store.Record, error)
}

// TokensHandler reports stored token status. It never returns secrets.
type TokensHandler struct {
	store     store.TokenStore
	refresher ProfileRefresher
	nowFunc   func() time.Time
}

// NewTokensHandler creates a new TokensHandler.
func NewTokensHandler(s store.TokenStore, r ProfileRefresher) *TokensHandler {
	return &TokensHandler{store: s, refresher: r, nowFunc: time.Now}
}

// --- Input/Output types ---

// TokenStatus describes a stored token without its secrets.
type TokenStatus struct {
	Profile         string     `json:"profile"                     doc:"Profile name"`
	UserID          string     `json:"user_id,omitempty"           doc:"Etsy user id from the access token prefix"`
	TokenType       string     `json:"token_type,omitempty"`
	Scope           string     `json:"scope,omitempty"             doc:"Granted scopes, space separated"`
	Expiry          *time.Time `json:"expiry,omitempty"`
	ExpiresIn       int64      `json:"expires_in_seconds"          doc:"Seconds until the access token expires; negative once expired"`
	Expired         bool       `json:"expired"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ListTokensInput is the input for listing stored tokens.
type ListTokensInput struct {
	ExpiringWithin string `query:"expiring_within" doc:"Only tokens expiring within this duration, e.g. 30m"`
	Limit          int    `query:"limit"           doc:"Number of results (default 100)"                    minimum:"0" maximum:"1000"`
	OrderBy        string `query:"order_by"        doc:"Sort field"                                          enum:"profile,expiry,updated_at,"`
}

// ListTokensOutput is the response for listing stored tokens.
type ListTokensOutput struct {
	Body struct {
		Tokens []TokenStatus `json:"tokens"`
		Total  int           `json:"total"`
	}
}

// ProfileInput names a stored profile.
type ProfileInput struct {
	Profile string `path:"profile" doc:"Profile name"`
}

// TokenStatusOutput is the response for a single profile.
type TokenStatusOutput struct {
	Body TokenStatus
}

// --- Handlers ---

// ListTokens returns the status of stored tokens.
func (h *TokensHandler) ListTokens(
	ctx context.Context,
	input *ListTokensInput,
) (*ListTokensOutput, error) {
	q := &store.TokenQuery{Limit: input.Limit, OrderBy: input.OrderBy}
	if input.ExpiringWithin != "" {
		d, err := time.ParseDuration(input.ExpiringWithin)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid expiring_within: " + err.Error())
		}
		before := h.nowFunc().Add(d)
		q.ExpiringBefore = &before
	}

	records, err := h.store.List(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing tokens: " + err.Error())
	}

	resp := &ListTokensOutput{}
	resp.Body.Tokens = make([]TokenStatus, 0, len(records))
	for i := range records {
		resp.Body.Tokens = append(resp.Body.Tokens, h.status(&records[i]))
	}
	resp.Body.Total = len(resp.Body.Tokens)

	return resp, nil
}

// GetToken returns the status of one profile.
func (h *TokensHandler) GetToken(
	ctx context.Context,
	input *ProfileInput,
) (*TokenStatusOutput, error) {
	rec, err := h.store.Get(ctx, input.Profile)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("token not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("getting token: " + err.Error())
	}
	return &TokenStatusOutput{Body: h.status(rec)}, nil
}

// RefreshToken refreshes one profile now.
func (h *TokensHandler) RefreshToken(
	ctx context.Context,
	input *ProfileInput,
) (*TokenStatusOutput, error) {
	rec, err := h.refresher.RefreshProfile(ctx, input.Profile)
	if err != nil {
		var authErr *etsy.AuthenticationError
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, huma.Error404NotFound("token not found")
		case errors.Is(err, etsy.ErrMissingRefreshToken):
			return nil, huma.Error409Conflict("profile has no refresh token")
		case errors.As(err, &authErr):
			return nil, huma.Error502BadGateway("etsy rejected the refresh: " + authErr.Error())
		default:
			return nil, huma.Error500InternalServerError("refreshing token: " + err.Error())
		}
	}
	return &TokenStatusOutput{Body: h.status(rec)}, nil
}

func (h *TokensHandler) status(r *store.Record) TokenStatus {
	s := TokenStatus{
		Profile:         r.Profile,
		UserID:          r.Token.UserID(),
		TokenType:       r.Token.TokenType,
		Scope:           r.Token.Raw.Get("scope").String(),
		HasRefreshToken: r.Token.RefreshToken != "",
		UpdatedAt:       r.UpdatedAt,
	}
	if !r.Token.Expiry.IsZero() {
		expiry := r.Token.Expiry
		s.Expiry = &expiry
		s.ExpiresIn = int64(expiry.Sub(h.nowFunc()).Seconds())
		s.Expired = s.ExpiresIn <= 0
	}
	return s
}

// RegisterTokenRoutes registers token status endpoints with the Huma API.
func RegisterTokenRoutes(api huma.API, h *TokensHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tokens",
		Method:      http.MethodGet,
		Path:        "/api/v1/tokens",
		Summary:     "List stored tokens",
		Description: "Returns expiry and ownership of stored tokens. Secrets are never included.",
		Tags:        []string{"tokens"},
	}, h.ListTokens)

	huma.Register(api, huma.Operation{
		OperationID: "get-token",
		Method:      http.MethodGet,
		Path:        "/api/v1/tokens/{profile}",
		Summary:     "Get a stored token",
		Description: "Returns the status of one profile's token.",
		Tags:        []string{"tokens"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetToken)

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/api/v1/tokens/{profile}/refresh",
		Summary:     "Refresh a stored token",
		Description: "Trades the profile's refresh token for a new access token and saves it.",
		Tags:        []string{"tokens"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusBadGateway},
	}, h.RefreshToken)
}
