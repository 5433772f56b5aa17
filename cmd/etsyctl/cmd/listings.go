package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "Read listings and edit their inventory",
	}

	listingsRoot.AddCommand(
		listingsGetCmd(),
		listingsByShopCmd(),
		listingsInventoryCmd(),
	)

	return listingsRoot
}

func listingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <listing-id>",
		Short: "Show a listing",
		Example: `  etsyctl listings get 1234567890
  etsyctl listings get 1234567890 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingID, err := parseID("listing", args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetListing(cmd.Context(), listingID)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				l, err := etsy.DecodeAs[etsy.Listing](doc)
				if err != nil {
					return err
				}
				return printListingDetail(cmd.OutOrStdout(), &l)
			})
		},
	}
}

func listingsByShopCmd() *cobra.Command {
	var params etsy.ListingsParams

	cmd := &cobra.Command{
		Use:     "by-shop <shop-id>",
		Short:   "List one page of a shop's listings",
		Example: `  etsyctl listings by-shop 12345678 --state active --limit 50`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shopID, err := parseID("shop", args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetListingsByShop(cmd.Context(), shopID, params)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				page, err := etsy.DecodeAs[etsy.Page[etsy.Listing]](doc)
				if err != nil {
					return err
				}
				if len(page.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No listings found.")
					return nil
				}
				return printListingsTable(cmd.OutOrStdout(), page.Results)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.State, "state", "", "active, inactive, sold_out, draft, expired")
	f.IntVar(&params.Limit, "limit", 0, "number of results (Etsy default when 0)")
	f.IntVar(&params.Offset, "offset", 0, "result offset")
	f.StringVar(&params.SortOn, "sort-on", "", "created, price, updated, score")
	f.StringVar(&params.SortOrder, "sort-order", "", "asc, desc")
	f.StringSliceVar(&params.Includes, "include", nil, "associations to include (repeatable)")

	return cmd
}

func listingsInventoryCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "inventory <listing-id>",
		Short: "Show a listing's inventory, or edit it with --set",
		Long: "Without --set, print the inventory. With --set, fetch the inventory,\n" +
			"apply each path=value edit (value is JSON, or a plain string), and send\n" +
			"the result back with updateListingInventory.",
		Example: `  etsyctl listings inventory 1234567890
  etsyctl listings inventory 1234567890 --set products.0.offerings.0.quantity=5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingID, err := parseID("listing", args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetListingInventory(cmd.Context(), listingID)
				if err != nil {
					return err
				}
				if len(sets) > 0 {
					if doc, err = applyEdits(doc, sets); err != nil {
						return err
					}
					if doc, err = c.UpdateListingInventory(cmd.Context(), listingID, doc); err != nil {
						return err
					}
				}
				return printDocument(cmd.OutOrStdout(), doc)
			})
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "path=value edit (repeatable)")

	return cmd
}

// applyEdits applies path=value edits to doc. Values that parse as JSON are
// set as JSON, anything else as a string.
func applyEdits(doc etsy.Document, edits []string) (etsy.Document, error) {
	for _, e := range edits {
		path, raw, ok := strings.Cut(e, "=")
		if !ok || path == "" {
			return doc, fmt.Errorf("invalid edit %q: want path=value", e)
		}

		var value any = raw
		if json.Valid([]byte(raw)) {
			value = json.RawMessage(raw)
		}

		next, err := doc.Set(path, value)
		if err != nil {
			return doc, fmt.Errorf("applying edit %q: %w", e, err)
		}
		doc = next
	}
	return doc, nil
}
