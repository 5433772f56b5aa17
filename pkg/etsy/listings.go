package etsy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListingsParams filters GetListingsByShop. Zero values are omitted and
// Etsy applies its own defaults.
type ListingsParams struct {
	State     string // active, inactive, sold_out, draft, expired
	Limit     int
	Offset    int
	SortOn    string // created, price, updated, score
	SortOrder string // asc, desc
	Includes  []string
}

// GetListing returns a single listing.
func (c *Client) GetListing(ctx context.Context, listingID int64) (Document, error) {
	return c.get(ctx, "getListing", fmt.Sprintf("/v3/application/listings/%d", listingID), nil)
}

// GetListingsByShop returns one page of a shop's listings. Paging is left to
// the caller through Limit and Offset.
func (c *Client) GetListingsByShop(
	ctx context.Context,
	shopID int64,
	params ListingsParams,
) (Document, error) {
	q := url.Values{}
	if params.State != "" {
		q.Set("state", params.State)
	}
	setPage(q, params.Limit, params.Offset)
	if params.SortOn != "" {
		q.Set("sort_on", params.SortOn)
	}
	if params.SortOrder != "" {
		q.Set("sort_order", params.SortOrder)
	}
	if len(params.Includes) > 0 {
		q.Set("includes", strings.Join(params.Includes, ","))
	}

	return c.get(ctx, "getListingsByShop",
		fmt.Sprintf("/v3/application/shops/%d/listings", shopID), q)
}

// GetListingInventory returns the products, offerings and property values of
// a listing.
func (c *Client) GetListingInventory(ctx context.Context, listingID int64) (Document, error) {
	return c.get(ctx, "getListingInventory",
		fmt.Sprintf("/v3/application/listings/%d/inventory", listingID), nil)
}

// UpdateListingInventory replaces the inventory of a listing. The usual flow
// is GetListingInventory, edit the Document with Set, then send it back.
func (c *Client) UpdateListingInventory(
	ctx context.Context,
	listingID int64,
	inventory Document,
) (Document, error) {
	return c.put(ctx, "updateListingInventory",
		fmt.Sprintf("/v3/application/listings/%d/inventory", listingID), inventory)
}

func setPage(q url.Values, limit, offset int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
}
