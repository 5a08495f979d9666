package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notification"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Create or update products from a YAML file",
	Long: `Create or update products from a YAML file.

New products start with the listed stock. Existing products keep their stock;
only name, price and active flag are updated.

Example file:
  products:
    - id: P1
      name: Mug
      unit_price: 2499
      stock: 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		products, err := parseCatalog(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := importCatalog(cmd.Context(), repo, products); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d product(s)\n", len(products))
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every product with price and stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		products, err := repo.ListProducts(cmd.Context(), false)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tACTIVE")
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n",
				p.ID, p.Name, notification.FormatAmount(p.UnitPrice, cfg.Currency), p.Stock, p.IsActive)
		}
		return tw.Flush()
	},
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
}

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	UnitPrice int64  `yaml:"unit_price"`
	Stock     int    `yaml:"stock"`
	Active    *bool  `yaml:"active"`
}

func parseCatalog(r io.Reader) ([]*domain.Product, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Products))
	products := make([]*domain.Product, 0, len(file.Products))
	var errs []error
	for i, e := range file.Products {
		switch {
		case e.ID == "":
			errs = append(errs, fmt.Errorf("products[%d]: id is required", i))
			continue
		case seen[e.ID]:
			errs = append(errs, fmt.Errorf("products[%d]: duplicate id %q", i, e.ID))
			continue
		case e.UnitPrice < 0:
			errs = append(errs, fmt.Errorf("products[%d]: unit_price must not be negative", i))
			continue
		case e.Stock < 0:
			errs = append(errs, fmt.Errorf("products[%d]: stock must not be negative", i))
			continue
		}
		seen[e.ID] = true

		name := e.Name
		if name == "" {
			name = e.ID
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		products = append(products, &domain.Product{
			ID:        e.ID,
			Name:      name,
			UnitPrice: e.UnitPrice,
			Stock:     e.Stock,
			IsActive:  active,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return products, nil
}

type productUpserter interface {
	UpsertProduct(ctx context.Context, p *domain.Product) error
}

func importCatalog(ctx context.Context, store productUpserter, products []*domain.Product) error {
	for _, p := range products {
		if err := store.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
