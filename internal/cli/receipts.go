package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *app) receiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "receipts",
		Aliases: []string{"receipt"},
		Short:   "Upload and scan receipts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(a.receiptsUploadCmd(), a.receiptsScanCmd(), a.receiptsListCmd())
	return cmd
}

func (a *app) receiptsUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a receipt photo (jpeg, png or webp)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			r, err := a.rt.API.UploadReceipt(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return describe("upload receipt", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded receipt %s\n", r.ID)

			if scan, _ := cmd.Flags().GetBool("scan"); !scan {
				return nil
			}
			res, err := a.rt.API.ScanReceipt(cmd.Context(), r.ID)
			if err != nil {
				return describe("scan receipt", err)
			}
			fmt.Fprintf(out, "%s: %d items, total %s\n", str(res.Receipt.StoreName), len(res.Items), money(res.Receipt.TotalAmount))
			return nil
		},
	}
	cmd.Flags().Bool("scan", false, "scan the receipt right after uploading")
	return cmd
}

func (a *app) receiptsScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <id>",
		Short: "Scan a receipt and add its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.rt.API.ScanReceipt(cmd.Context(), id)
			if err != nil {
				return describe("scan receipt", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %s, total %s\n", str(res.Receipt.StoreName), date(&res.Receipt.PurchaseDate), money(res.Receipt.TotalAmount))
			tw := newTable(out, "ID", "NAME", "QTY", "PRICE", "EXPIRES")
			for _, it := range res.Items {
				row(tw, it.ID, it.Name, it.Quantity, it.Price.StringFixed(2), date(it.ExpiryDate))
			}
			return tw.Flush()
		},
	}
}

func (a *app) receiptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			rs, err := a.rt.API.ListReceipts(cmd.Context())
			if err != nil {
				return describe("list receipts", err)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "STORE", "DATE", "TOTAL", "STATUS")
			for _, r := range rs {
				row(tw, r.ID, str(r.StoreName), date(&r.PurchaseDate), money(r.TotalAmount), r.ScanStatus)
			}
			return tw.Flush()
		},
	}
}
