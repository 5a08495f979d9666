package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/spf13/cobra"
)

var errInventoryDrift = errors.New("inventory drift detected")

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare every stock counter with its ledger",
	Long: `Compare each product's stock with its initial stock plus the sum of its
ledger entries. Exits non-zero when any product drifts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		drifts, err := service.NewCatalogService(repo, nil, log).Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		return printDrifts(cmd.OutOrStdout(), drifts)
	},
}

func printDrifts(w io.Writer, drifts []domain.StockDrift) error {
	if len(drifts) == 0 {
		fmt.Fprintln(w, "inventory consistent")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tINITIAL\tLEDGER\tEXPECTED\tSTOCK")
	for _, d := range drifts {
		fmt.Fprintf(tw, "%s\t%d\t%+d\t%d\t%d\n", d.ProductID, d.InitialStock, d.LedgerSum, d.Expected(), d.Stock)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d product(s)", errInventoryDrift, len(drifts))
}
