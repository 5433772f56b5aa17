package etsy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultReceiptsLimit = 25

// ReceiptsParams filters GetShopReceipts. Time bounds are sent as Unix
// seconds; zero times are omitted.
type ReceiptsParams struct {
	MinCreated      time.Time
	MaxCreated      time.Time
	MinLastModified time.Time
	MaxLastModified time.Time
	WasPaid         *bool
	WasShipped      *bool
	WasDelivered    *bool
	Limit           int // default 25
	Offset          int
	SortOn          string // created, updated, receipt_id
	SortOrder       string // asc, desc
}

func (p ReceiptsParams) query() url.Values {
	q := url.Values{}
	setUnix(q, "min_created", p.MinCreated)
	setUnix(q, "max_created", p.MaxCreated)
	setUnix(q, "min_last_modified", p.MinLastModified)
	setUnix(q, "max_last_modified", p.MaxLastModified)
	setBool(q, "was_paid", p.WasPaid)
	setBool(q, "was_shipped", p.WasShipped)
	setBool(q, "was_delivered", p.WasDelivered)

	limit := p.Limit
	if limit <= 0 {
		limit = defaultReceiptsLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(max(p.Offset, 0)))

	if p.SortOn != "" {
		q.Set("sort_on", p.SortOn)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}
	return q
}

// ReceiptUpdate carries the fields updateShopReceipt accepts. Nil fields are
// left unchanged.
type ReceiptUpdate struct {
	WasShipped *bool
	WasPaid    *bool
}

// GetShopReceipt returns one receipt of a shop.
func (c *Client) GetShopReceipt(ctx context.Context, shopID, receiptID int64) (Document, error) {
	return c.get(ctx, "getShopReceipt",
		fmt.Sprintf("/v3/application/shops/%d/receipts/%d", shopID, receiptID), nil)
}

// GetShopReceipts returns one page of a shop's receipts.
func (c *Client) GetShopReceipts(
	ctx context.Context,
	shopID int64,
	params ReceiptsParams,
) (Document, error) {
	return c.get(ctx, "getShopReceipts",
		fmt.Sprintf("/v3/application/shops/%d/receipts", shopID), params.query())
}

// UpdateShopReceipt marks a receipt as paid and/or shipped.
func (c *Client) UpdateShopReceipt(
	ctx context.Context,
	shopID, receiptID int64,
	update ReceiptUpdate,
) (Document, error) {
	form := url.Values{}
	setBool(form, "was_shipped", update.WasShipped)
	setBool(form, "was_paid", update.WasPaid)

	return c.Do(ctx, Request{
		Operation: "updateShopReceipt",
		Method:    http.MethodPut,
		Path:      fmt.Sprintf("/v3/application/shops/%d/receipts/%d", shopID, receiptID),
		Form:      form,
	})
}

func setUnix(q url.Values, key string, t time.Time) {
	if t.IsZero() {
		return
	}
	q.Set(key, strconv.FormatInt(t.Unix(), 10))
}

func setBool(q url.Values, key string, b *bool) {
	if b == nil {
		return
	}
	q.Set(key, strconv.FormatBool(*b))
}
