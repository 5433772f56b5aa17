package etsy

import (
	"context"
	"fmt"
	"net/url"
)

// Ping checks the app's API key against the openapi-ping endpoint.
func (c *Client) Ping(ctx context.Context) (Document, error) {
	return c.get(ctx, "ping", "/v3/application/openapi-ping", nil)
}

// GetMe returns the user_id and shop_id of the token's owner.
func (c *Client) GetMe(ctx context.Context) (Document, error) {
	return c.get(ctx, "getMe", "/v3/application/users/me", nil)
}

// GetUser returns a user profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (Document, error) {
	return c.get(ctx, "getUser", fmt.Sprintf("/v3/application/users/%d", userID), nil)
}

// FindShops searches shops by name.
func (c *Client) FindShops(ctx context.Context, name string, limit, offset int) (Document, error) {
	q := url.Values{}
	q.Set("shop_name", name)
	setPage(q, limit, offset)
	return c.get(ctx, "findShops", "/v3/application/shops", q)
}

// GetShop returns a shop.
func (c *Client) GetShop(ctx context.Context, shopID int64) (Document, error) {
	return c.get(ctx, "getShop", fmt.Sprintf("/v3/application/shops/%d", shopID), nil)
}
