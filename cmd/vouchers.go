package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfarm-bot/bitfarm/internal/adapters/ledger"
)

func newVouchersCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vouchers",
		Short: "List vouchers recorded in the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := ledger.NewFile(app.settings.Vouchers.StorageFile)
			if err != nil {
				return err
			}

			vouchers, err := file.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(vouchers) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No vouchers recorded.")
				return err
			}

			for _, voucher := range vouchers {
				link := voucher.Link
				if link == "" {
					link = voucher.InlineQuery
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\t%s\n",
					voucher.CreatedAt.Format("2006-01-02 15:04:05"), voucher.ID, voucher.Amount, voucher.CreatedBy, link)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}
}
