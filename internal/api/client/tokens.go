package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/donaldgifford/etsy-v3/internal/api/handlers"
)

// ListOptions narrows ListTokens. Zero values are omitted.
type ListOptions struct {
	ExpiringWithin time.Duration
	Limit          int
	OrderBy        string
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.ExpiringWithin > 0 {
		v.Set("expiring_within", o.ExpiringWithin.String())
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.OrderBy != "" {
		v.Set("order_by", o.OrderBy)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListTokens returns the status of the tokens the server holds.
func (c *Client) ListTokens(ctx context.Context, opts ListOptions) ([]handlers.TokenStatus, error) {
	var resp struct {
		Tokens []handlers.TokenStatus `json:"tokens"`
		Total  int                    `json:"total"`
	}
	if err := c.get(ctx, "/api/v1/tokens"+opts.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// GetToken returns the status of one profile.
func (c *Client) GetToken(ctx context.Context, profile string) (*handlers.TokenStatus, error) {
	var ts handlers.TokenStatus
	if err := c.get(ctx, "/api/v1/tokens/"+url.PathEscape(profile), &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

// RefreshToken asks the server to refresh one profile now.
func (c *Client) RefreshToken(ctx context.Context, profile string) (*handlers.TokenStatus, error) {
	var ts handlers.TokenStatus
	if err := c.post(ctx, "/api/v1/tokens/"+url.PathEscape(profile)+"/refresh", &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}
