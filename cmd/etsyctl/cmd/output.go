package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tidwall/pretty"

	"github.com/donaldgifford/etsy-v3/internal/store"
	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printDocument writes an API response as indented JSON, unchanged otherwise.
func printDocument(w io.Writer, doc etsy.Document) error {
	if doc.IsEmpty() {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}
	_, err := w.Write(pretty.Pretty(doc.Raw()))
	return err
}

// formatExpiry renders an expiry relative to now.
func formatExpiry(expiry, now time.Time) string {
	if expiry.IsZero() {
		return "never"
	}
	d := expiry.Sub(now).Round(time.Second)
	if d <= 0 {
		return fmt.Sprintf("%s (expired %s ago)", expiry.Local().Format(timeLayout), -d)
	}
	return fmt.Sprintf("%s (in %s)", expiry.Local().Format(timeLayout), d)
}

func printAuthRequest(w io.Writer, req *etsy.AuthRequest) error {
	tw := newTabWriter(w)
	tw.writef("URL:\t%s\n", req.URL)
	tw.writef("State:\t%s\n", req.State)
	tw.writef("Verifier:\t%s\n", req.PKCE.Verifier)
	return tw.finish()
}

// tokenSummary is the JSON form of a stored token. Secrets are left out.
type tokenSummary struct {
	Profile         string    `json:"profile"`
	UserID          string    `json:"user_id,omitempty"`
	TokenType       string    `json:"token_type,omitempty"`
	Scope           string    `json:"scope,omitempty"`
	Expiry          time.Time `json:"expiry,omitzero"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

func summarizeToken(r *store.Record) tokenSummary {
	return tokenSummary{
		Profile:         r.Profile,
		UserID:          r.Token.UserID(),
		TokenType:       r.Token.TokenType,
		Scope:           r.Token.Raw.Get("scope").String(),
		Expiry:          r.Token.Expiry,
		HasRefreshToken: r.Token.RefreshToken != "",
		UpdatedAt:       r.UpdatedAt,
	}
}

func printTokenDetail(w io.Writer, r *store.Record, now time.Time) error {
	s := summarizeToken(r)
	tw := newTabWriter(w)
	tw.writef("Profile:\t%s\n", s.Profile)
	tw.writef("User ID:\t%s\n", orDash(s.UserID))
	tw.writef("Type:\t%s\n", orDash(s.TokenType))
	tw.writef("Scope:\t%s\n", orDash(s.Scope))
	tw.writef("Expires:\t%s\n", formatExpiry(s.Expiry, now))
	tw.writef("Refresh Token:\t%v\n", s.HasRefreshToken)
	if !s.UpdatedAt.IsZero() {
		tw.writef("Updated:\t%s\n", s.UpdatedAt.Local().Format(timeLayout))
	}
	return tw.finish()
}

func printTokensTable(w io.Writer, records []store.Record, now time.Time) error {
	tw := newTabWriter(w)
	tw.writef("PROFILE\tUSER\tEXPIRES\tREFRESH\n")
	for i := range records {
		s := summarizeToken(&records[i])
		tw.writef("%s\t%s\t%s\t%v\n",
			s.Profile,
			orDash(s.UserID),
			formatExpiry(s.Expiry, now),
			s.HasRefreshToken,
		)
	}
	return tw.finish()
}

func printShopDetail(w io.Writer, s *etsy.Shop) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%d\n", s.ShopID)
	tw.writef("Name:\t%s\n", s.ShopName)
	tw.writef("Title:\t%s\n", orDash(s.Title))
	tw.writef("Owner:\t%d\n", s.UserID)
	tw.writef("Currency:\t%s\n", s.CurrencyCode)
	tw.writef("Active Listings:\t%d\n", s.ListingActiveCount)
	tw.writef("Vacation:\t%v\n", s.IsVacation)
	tw.writef("URL:\t%s\n", s.URL)
	return tw.finish()
}

func printShopsTable(w io.Writer, shops []etsy.Shop) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tTITLE\tLISTINGS\tCURRENCY\n")
	for i := range shops {
		tw.writef("%d\t%s\t%s\t%d\t%s\n",
			shops[i].ShopID,
			shops[i].ShopName,
			truncate(shops[i].Title, 40),
			shops[i].ListingActiveCount,
			shops[i].CurrencyCode,
		)
	}
	return tw.finish()
}

func printListingsTable(w io.Writer, listings []etsy.Listing) error {
	tw := newTabWriter(w)
	tw.writef("ID\tTITLE\tPRICE\tQTY\tSTATE\n")
	for i := range listings {
		tw.writef("%d\t%s\t%s\t%d\t%s\n",
			listings[i].ListingID,
			truncate(listings[i].Title, 40),
			listings[i].Price,
			listings[i].Quantity,
			listings[i].State,
		)
	}
	return tw.finish()
}

func printListingDetail(w io.Writer, l *etsy.Listing) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%d\n", l.ListingID)
	tw.writef("Shop:\t%d\n", l.ShopID)
	tw.writef("Title:\t%s\n", l.Title)
	tw.writef("Price:\t%s\n", l.Price)
	tw.writef("Quantity:\t%d\n", l.Quantity)
	tw.writef("State:\t%s\n", l.State)
	if len(l.Tags) > 0 {
		tw.writef("Tags:\t%s\n", strings.Join(l.Tags, ", "))
	}
	tw.writef("URL:\t%s\n", l.URL)
	return tw.finish()
}

func printReceiptsTable(w io.Writer, receipts []etsy.Receipt) error {
	tw := newTabWriter(w)
	tw.writef("ID\tBUYER\tTOTAL\tPAID\tSHIPPED\tCREATED\n")
	for i := range receipts {
		r := &receipts[i]
		tw.writef("%d\t%s\t%s\t%v\t%v\t%s\n",
			r.ReceiptID,
			truncate(r.Name, 30),
			r.GrandTotal,
			r.IsPaid,
			r.IsShipped,
			unixTime(r.CreateTime),
		)
	}
	return tw.finish()
}

func printReceiptDetail(w io.Writer, r *etsy.Receipt) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%d\n", r.ReceiptID)
	tw.writef("Buyer:\t%s\n", r.Name)
	tw.writef("Email:\t%s\n", orDash(r.BuyerEmail))
	tw.writef("Status:\t%s\n", r.Status)
	tw.writef("Total:\t%s\n", r.GrandTotal)
	tw.writef("Paid:\t%v\n", r.IsPaid)
	tw.writef("Shipped:\t%v\n", r.IsShipped)
	tw.writef("Created:\t%s\n", unixTime(r.CreateTime))
	tw.writef("Updated:\t%s\n", unixTime(r.UpdateTime))
	for _, t := range r.Transactions {
		tw.writef("Item:\t%d x %s (listing %d)\n", t.Quantity, truncate(t.Title, 40), t.ListingID)
	}
	return tw.finish()
}

func unixTime(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
