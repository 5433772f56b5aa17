package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

func receiptsCmd() *cobra.Command {
	receiptsRoot := &cobra.Command{
		Use:   "receipts",
		Short: "Read and update shop receipts",
	}

	receiptsRoot.AddCommand(
		receiptsGetCmd(),
		receiptsListCmd(),
		receiptsUpdateCmd(),
	)

	return receiptsRoot
}

func receiptsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <shop-id> <receipt-id>",
		Short:   "Show a receipt",
		Example: `  etsyctl receipts get 12345678 987654321`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shopID, err := parseID("shop", args[0])
			if err != nil {
				return err
			}
			receiptID, err := parseID("receipt", args[1])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetShopReceipt(cmd.Context(), shopID, receiptID)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				r, err := etsy.DecodeAs[etsy.Receipt](doc)
				if err != nil {
					return err
				}
				return printReceiptDetail(cmd.OutOrStdout(), &r)
			})
		},
	}
}

// receiptFilters holds the list flags before conversion to ReceiptsParams.
type receiptFilters struct {
	since, until      time.Duration
	modifiedSince     time.Duration
	paid, shipped     string
	limit, offset     int
	sortOn, sortOrder string
}

func (f *receiptFilters) params(now time.Time) (etsy.ReceiptsParams, error) {
	p := etsy.ReceiptsParams{
		Limit:     f.limit,
		Offset:    f.offset,
		SortOn:    f.sortOn,
		SortOrder: f.sortOrder,
	}
	if f.since > 0 {
		p.MinCreated = now.Add(-f.since)
	}
	if f.until > 0 {
		p.MaxCreated = now.Add(-f.until)
	}
	if f.modifiedSince > 0 {
		p.MinLastModified = now.Add(-f.modifiedSince)
	}

	var err error
	if p.WasPaid, err = parseTriState("paid", f.paid); err != nil {
		return p, err
	}
	if p.WasShipped, err = parseTriState("shipped", f.shipped); err != nil {
		return p, err
	}
	return p, nil
}

// parseTriState maps "", "true", "false" to nil, &true, &false.
func parseTriState(name, v string) (*bool, error) {
	switch v {
	case "":
		return nil, nil
	case "true":
		b := true
		return &b, nil
	case "false":
		b := false
		return &b, nil
	default:
		return nil, fmt.Errorf("--%s must be true or false (got %q)", name, v)
	}
}

func receiptsListCmd() *cobra.Command {
	var f receiptFilters

	cmd := &cobra.Command{
		Use:   "list <shop-id>",
		Short: "List one page of a shop's receipts",
		Example: `  etsyctl receipts list 12345678
  etsyctl receipts list 12345678 --since 168h --shipped false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shopID, err := parseID("shop", args[0])
			if err != nil {
				return err
			}
			params, err := f.params(time.Now())
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetShopReceipts(cmd.Context(), shopID, params)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				page, err := etsy.DecodeAs[etsy.Page[etsy.Receipt]](doc)
				if err != nil {
					return err
				}
				if len(page.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No receipts found.")
					return nil
				}
				return printReceiptsTable(cmd.OutOrStdout(), page.Results)
			})
		},
	}

	fl := cmd.Flags()
	fl.DurationVar(&f.since, "since", 0, "only receipts created within this long ago")
	fl.DurationVar(&f.until, "until", 0, "only receipts created at least this long ago")
	fl.DurationVar(&f.modifiedSince, "modified-since", 0, "only receipts modified within this long ago")
	fl.StringVar(&f.paid, "paid", "", "filter on payment (true, false)")
	fl.StringVar(&f.shipped, "shipped", "", "filter on shipment (true, false)")
	fl.IntVar(&f.limit, "limit", 25, "number of results")
	fl.IntVar(&f.offset, "offset", 0, "result offset")
	fl.StringVar(&f.sortOn, "sort-on", "", "created, updated, receipt_id")
	fl.StringVar(&f.sortOrder, "sort-order", "", "asc, desc")

	return cmd
}

func receiptsUpdateCmd() *cobra.Command {
	var paid, shipped string

	cmd := &cobra.Command{
		Use:     "update <shop-id> <receipt-id>",
		Short:   "Mark a receipt as paid or shipped",
		Example: `  etsyctl receipts update 12345678 987654321 --shipped true`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shopID, err := parseID("shop", args[0])
			if err != nil {
				return err
			}
			receiptID, err := parseID("receipt", args[1])
			if err != nil {
				return err
			}

			var update etsy.ReceiptUpdate
			if update.WasPaid, err = parseTriState("paid", paid); err != nil {
				return err
			}
			if update.WasShipped, err = parseTriState("shipped", shipped); err != nil {
				return err
			}
			if update.WasPaid == nil && update.WasShipped == nil {
				return errors.New("nothing to update: pass --paid and/or --shipped")
			}

			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.UpdateShopReceipt(cmd.Context(), shopID, receiptID, update)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				r, err := etsy.DecodeAs[etsy.Receipt](doc)
				if err != nil {
					return err
				}
				return printReceiptDetail(cmd.OutOrStdout(), &r)
			})
		},
	}

	cmd.Flags().StringVar(&paid, "paid", "", "set payment state (true, false)")
	cmd.Flags().StringVar(&shipped, "shipped", "", "set shipment state (true, false)")

	return cmd
}
