package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the app key is accepted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.Ping(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok (application %d)\n",
					doc.Get("application_id").Int())
				return nil
			})
		},
	}
}

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the user and shop the token belongs to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetMe(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				me, err := etsy.DecodeAs[etsy.Me](doc)
				if err != nil {
					return err
				}
				tw := newTabWriter(cmd.OutOrStdout())
				tw.writef("User ID:\t%d\n", me.UserID)
				tw.writef("Shop ID:\t%d\n", me.ShopID)
				return tw.finish()
			})
		},
	}
}

func shopsCmd() *cobra.Command {
	shopsRoot := &cobra.Command{
		Use:   "shops",
		Short: "Look up shops",
	}

	shopsRoot.AddCommand(shopsGetCmd(), shopsFindCmd())

	return shopsRoot
}

func shopsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <shop-id>",
		Short:   "Show a shop",
		Example: `  etsyctl shops get 12345678`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shopID, err := parseID("shop", args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.GetShop(cmd.Context(), shopID)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				shop, err := etsy.DecodeAs[etsy.Shop](doc)
				if err != nil {
					return err
				}
				return printShopDetail(cmd.OutOrStdout(), &shop)
			})
		},
	}
}

func shopsFindCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:     "find <name>",
		Short:   "Search shops by name",
		Example: `  etsyctl shops find vintage --limit 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *etsy.Client) error {
				doc, err := c.FindShops(cmd.Context(), args[0], limit, offset)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printDocument(cmd.OutOrStdout(), doc)
				}
				page, err := etsy.DecodeAs[etsy.Page[etsy.Shop]](doc)
				if err != nil {
					return err
				}
				if len(page.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No shops found.")
					return nil
				}
				return printShopsTable(cmd.OutOrStdout(), page.Results)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")

	return cmd
}
