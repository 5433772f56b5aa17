package etsy

import (
	"fmt"
	"strconv"
)

// The types below are partial, typed views of common Etsy resources. They
// decode the fields most callers read; the Document keeps everything else.

// Money is Etsy's fixed-point amount: Amount / Divisor in CurrencyCode.
type Money struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// Float returns the amount as a decimal value.
func (m Money) Float() float64 {
	if m.Divisor == 0 {
		return float64(m.Amount)
	}
	return float64(m.Amount) / float64(m.Divisor)
}

func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', 2, 64) + " " + m.CurrencyCode
}

// Me is the response of GetMe.
type Me struct {
	UserID int64 `json:"user_id"`
	ShopID int64 `json:"shop_id"`
}

// User is a view of a user profile.
type User struct {
	UserID       int64  `json:"user_id"`
	PrimaryEmail string `json:"primary_email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// Shop is a view of a shop.
type Shop struct {
	ShopID             int64  `json:"shop_id"`
	ShopName           string `json:"shop_name"`
	UserID             int64  `json:"user_id"`
	Title              string `json:"title"`
	CurrencyCode       string `json:"currency_code"`
	ListingActiveCount int    `json:"listing_active_count"`
	URL                string `json:"url"`
	IsVacation         bool   `json:"is_vacation"`
}

// Listing is a view of a listing.
type Listing struct {
	ListingID int64    `json:"listing_id"`
	ShopID    int64    `json:"shop_id"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Quantity  int      `json:"quantity"`
	URL       string   `json:"url"`
	Price     Money    `json:"price"`
	Tags      []string `json:"tags"`
}

// Receipt is a view of a shop receipt.
type Receipt struct {
	ReceiptID    int64  `json:"receipt_id"`
	Name         string `json:"name"`
	BuyerEmail   string `json:"buyer_email"`
	Status       string `json:"status"`
	IsPaid       bool   `json:"is_paid"`
	IsShipped    bool   `json:"is_shipped"`
	CreateTime   int64  `json:"create_timestamp"`
	UpdateTime   int64  `json:"update_timestamp"`
	GrandTotal   Money  `json:"grandtotal"`
	Transactions []struct {
		TransactionID int64  `json:"transaction_id"`
		ListingID     int64  `json:"listing_id"`
		Title         string `json:"title"`
		Quantity      int    `json:"quantity"`
	} `json:"transactions"`
}

// Page is the envelope Etsy uses for collections.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// DecodeAs decodes doc into a new T.
func DecodeAs[T any](doc Document) (T, error) {
	var v T
	if err := doc.Decode(&v); err != nil {
		return v, fmt.Errorf("decoding %T: %w", v, err)
	}
	return v, nil
}
