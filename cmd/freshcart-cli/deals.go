package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/freshcart/freshcart/internal/storage"
)

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid target id %q: %w", r, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newDealsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "deals",
		Short: "List current deals, biggest savings first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ui := NewUI(outputJSON, noColor)
			deals, err := s.suggest.Deals(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list deals: %w", err)
			}

			if outputJSON {
				ui.JSON(deals)
				return nil
			}
			if len(deals) == 0 {
				ui.Info("No deals right now")
				return nil
			}
			for _, pp := range deals {
				line := fmt.Sprintf("%-30s %s", pp.Product.Name, ui.Price(pp.Product.BasePrice, pp.FinalPrice))
				if pp.Discount != nil {
					line += fmt.Sprintf("  save $%.2f (%s)", pp.Discount.SavedAmount, pp.Discount.Name)
				} else if pp.Product.IsSeasonal {
					line += "  seasonal"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of deals")
	return cmd
}

func newDiscountCmd() *cobra.Command {
	var (
		name      string
		dType     string
		value     float64
		appliesTo string
		targets   []string
		days      int
	)

	cmd := &cobra.Command{
		Use:   "discount",
		Short: "Define a discount",
		Example: `  freshcart-cli discount --name "Apple Sale" --type percentage --value 20 --applies-to product --target <product-id>
  freshcart-cli discount --name "Dairy Deal" --type fixed_amount --value 0.50 --applies-to category --target <category-id> --days 14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ui := NewUI(outputJSON, noColor)
			targetIDs, err := parseUUIDs(targets)
			if err != nil {
				return err
			}

			now := time.Now()
			discount := &storage.Discount{
				Name:       name,
				Type:       storage.DiscountType(dType),
				Value:      value,
				AppliesTo:  storage.DiscountScope(appliesTo),
				Targets:    targetIDs,
				ValidFrom:  now,
				ValidUntil: now.AddDate(0, 0, days),
			}
			repo := storage.NewDiscountRepository(s.db)
			if err := repo.Create(cmd.Context(), discount); err != nil {
				return fmt.Errorf("create discount: %w", err)
			}

			if outputJSON {
				ui.JSON(discount)
				return nil
			}
			ui.Success("Created discount %s (%s), valid for %d days", discount.Name, discount.ID, days)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "discount name (required)")
	cmd.Flags().StringVar(&dType, "type", "percentage", "percentage or fixed_amount")
	cmd.Flags().Float64Var(&value, "value", 0, "percent off or amount off (required)")
	cmd.Flags().StringVar(&appliesTo, "applies-to", "product", "product or category")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "target IDs (required)")
	cmd.Flags().IntVar(&days, "days", 7, "validity window in days from now")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
