package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freshcart/freshcart/internal/voice"
)

func newSayCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "say [command text]",
		Short: "Run a voice command against the local cart",
		Example: `  freshcart-cli say add 2 apples to my list
  freshcart-cli say remove milk from my list
  freshcart-cli say show my shopping list`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ui := NewUI(outputJSON, noColor)
			result, err := s.voice.Execute(cmd.Context(), userID, strings.Join(args, " "))
			if errors.Is(err, voice.ErrEmptyCommand) {
				return fmt.Errorf("command text is required")
			}
			if err != nil {
				return fmt.Errorf("execute command: %w", err)
			}

			if outputJSON {
				ui.JSON(result)
				return nil
			}

			if result.Success {
				ui.Success("%s", result.Message)
			} else {
				ui.Warning("%s", result.Message)
				for _, s := range result.Suggestions {
					ui.Info("  %s", s)
				}
			}

			if result.Cart != nil {
				for _, item := range result.Cart.Items {
					fmt.Printf("  %d x %s (%s)\n", item.Quantity, item.NameSnapshot, item.Unit)
				}
			}
			for _, pp := range result.Products {
				fmt.Printf("  %-30s %s\n", pp.Product.Name, ui.Price(pp.Product.BasePrice, pp.FinalPrice))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "dev", "shopper identity")
	return cmd
}
