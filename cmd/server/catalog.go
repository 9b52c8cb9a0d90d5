package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"configurator-backend/internal/configurator"
	"configurator-backend/internal/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect product catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>...",
	Short: "Load and validate catalog files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			c, err := domain.LoadCatalog(data)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s, %d components, %d rules\n",
				path, c.Product, len(c.Components), len(c.Rules))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d catalogs invalid", failed, len(args))
		}
		return nil
	},
}

var priceOpts struct {
	file     string
	selects  []string
	depth    int
	length   int
	extras   []string
	postcode string
	km       float64
}

var catalogPriceCmd = &cobra.Command{
	Use:   "price <product>",
	Short: "Price a configuration without starting the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrice,
}

func init() {
	f := catalogPriceCmd.Flags()
	f.StringVar(&priceOpts.file, "file", "", "catalog file instead of the built-in one")
	f.StringArrayVar(&priceOpts.selects, "select", nil, "component=option, repeatable")
	f.IntVar(&priceOpts.depth, "depth", 0, "depth, cm")
	f.IntVar(&priceOpts.length, "length", 0, "length, cm")
	f.StringArrayVar(&priceOpts.extras, "ancillary", nil, "ancillary key, repeatable")
	f.StringVar(&priceOpts.postcode, "postcode", "", "delivery postcode")
	f.Float64Var(&priceOpts.km, "km", -1, "distance from the depot, km (needs --postcode)")

	catalogCmd.AddCommand(catalogValidateCmd, catalogPriceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	c, err := priceCatalog(args[0])
	if err != nil {
		return err
	}

	s := configurator.NewSession(c)
	for _, sel := range priceOpts.selects {
		comp, opt, ok := strings.Cut(sel, "=")
		if !ok {
			return fmt.Errorf("--select %q: want component=option", sel)
		}
		s.SelectOption(comp, opt)
	}
	if priceOpts.depth > 0 {
		s.SetDimension(configurator.AxisDepth, priceOpts.depth)
	}
	if priceOpts.length > 0 {
		s.SetDimension(configurator.AxisLength, priceOpts.length)
	}
	for _, key := range priceOpts.extras {
		if _, ok := c.Ancillary(key); !ok {
			return fmt.Errorf("unknown ancillary %q", key)
		}
		s.SetAncillary(key, true)
	}
	if priceOpts.postcode != "" {
		s.SetPostcode(priceOpts.postcode)
		if priceOpts.km >= 0 && !s.ApplyDistance(s.Snapshot().Postcode, priceOpts.km) {
			return fmt.Errorf("postcode %q is not valid", priceOpts.postcode)
		}
	}

	out := struct {
		Selection configurator.Snapshot         `json:"snapshot"`
		Price     configurator.Breakdown        `json:"price"`
		Issues    []configurator.DimensionIssue `json:"dimensionIssues,omitempty"`
		Fixed     []configurator.Correction     `json:"corrections,omitempty"`
	}{
		Selection: s.Snapshot(),
		Price:     s.Price(),
		Issues:    s.DimensionIssues(),
		Fixed:     s.LastCorrections(),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func priceCatalog(product string) (*domain.Catalog, error) {
	if priceOpts.file != "" {
		data, err := os.ReadFile(priceOpts.file)
		if err != nil {
			return nil, err
		}
		return domain.LoadCatalog(data)
	}
	products, err := domain.DefaultProducts()
	if err != nil {
		return nil, err
	}
	c, ok := products.Get(product)
	if !ok {
		return nil, fmt.Errorf("unknown product %q", product)
	}
	return c, nil
}
