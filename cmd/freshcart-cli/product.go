package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freshcart/freshcart/internal/catalog"
)

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage catalog products",
	}
	cmd.AddCommand(newProductAddCmd())
	cmd.AddCommand(newProductListCmd())
	return cmd
}

func newProductAddCmd() *cobra.Command {
	var (
		name       string
		brand      string
		price      float64
		unit       string
		category   string
		tags       []string
		stock      int
		seasonal   bool
		sku        string
		descFlag   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalog",
		Example: `  freshcart-cli product add --name "Whole Milk" --price 3.49 --category Dairy --brand "Happy Farms" --unit gallon
  freshcart-cli product add --name "Honeycrisp Apple" --price 0.89 --category Produce --tags fruit,fresh --seasonal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ui := NewUI(outputJSON, noColor)
			product, err := s.service.CreateProduct(cmd.Context(), catalog.ProductInput{
				Name:        name,
				Description: descFlag,
				Brand:       brand,
				BasePrice:   price,
				Unit:        unit,
				SKU:         sku,
				Stock:       stock,
				Category:    category,
				Tags:        tags,
				IsSeasonal:  seasonal,
			})
			if err != nil {
				return fmt.Errorf("create product: %w", err)
			}

			if outputJSON {
				ui.JSON(product)
				return nil
			}
			ui.Success("Created %s (%s)", product.Name, product.ID)
			if len(product.Substitutes) > 0 {
				ui.Info("Linked %d substitutes", len(product.Substitutes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "product name (required)")
	cmd.Flags().StringVar(&brand, "brand", "", "brand name")
	cmd.Flags().Float64Var(&price, "price", 0, "base price (required)")
	cmd.Flags().StringVar(&unit, "unit", "each", "unit of sale")
	cmd.Flags().StringVar(&category, "category", "", "category name, created if unknown (required)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	cmd.Flags().IntVar(&stock, "stock", 0, "stock on hand")
	cmd.Flags().BoolVar(&seasonal, "seasonal", false, "mark as seasonal")
	cmd.Flags().StringVar(&sku, "sku", "", "stock keeping unit")
	cmd.Flags().StringVar(&descFlag, "description", "", "product description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newProductListCmd() *cobra.Command {
	var brand string

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "Search the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ui := NewUI(outputJSON, noColor)
			matches, err := s.resolver.Search(cmd.Context(), strings.Join(args, " "), brand)
			if err != nil {
				ui.Warning("No products found")
				return nil
			}

			priced := s.pricer.PriceAll(cmd.Context(), matches)
			if outputJSON {
				ui.JSON(priced)
				return nil
			}
			for _, pp := range priced {
				line := fmt.Sprintf("%-30s %s / %s", pp.Product.Name, ui.Price(pp.Product.BasePrice, pp.FinalPrice), pp.Product.Unit)
				if pp.Discount != nil {
					line += fmt.Sprintf("  [%s]", pp.Discount.Name)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "filter by brand")
	return cmd
}
