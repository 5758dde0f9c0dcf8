package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"auction-analyzer/backend/internal/valuation"
)

func taxCmd() *cobra.Command {
	var (
		price        int64
		propertyType string
		houses       int
	)
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Compute acquisition tax and fees for a purchase price",
		RunE: func(cmd *cobra.Command, args []string) error {
			if price <= 0 {
				return fmt.Errorf("--price must be positive")
			}
			category := valuation.CategoryOf(propertyType)
			costs := valuation.Costs(price, category, max(houses, 1), nil)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "category:          %s\n", category)
			fmt.Fprintf(out, "acquisition tax:   %d\n", costs.AcquisitionTax)
			fmt.Fprintf(out, "registration fee:  %d\n", costs.RegistrationFee)
			fmt.Fprintf(out, "legal fee:         %d\n", costs.LegalFee)
			fmt.Fprintf(out, "total:             %d\n", costs.Total())
			return nil
		},
	}
	cmd.Flags().Int64Var(&price, "price", 0, "purchase price in KRW")
	cmd.Flags().StringVar(&propertyType, "type", "아파트", "property type")
	cmd.Flags().IntVar(&houses, "houses", 1, "homes owned after the purchase")
	return cmd
}

func bidCmd() *cobra.Command {
	var marketValue, deduction, minimumBid int64
	cmd := &cobra.Command{
		Use:   "bid",
		Short: "Compute conservative, moderate and aggressive bid prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if marketValue <= 0 {
				return fmt.Errorf("--market-value must be positive")
			}
			r := valuation.BidPriceRange(marketValue, deduction, minimumBid)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "conservative:  %d\n", r.Conservative)
			fmt.Fprintf(out, "moderate:      %d\n", r.Moderate)
			fmt.Fprintf(out, "aggressive:    %d\n", r.Aggressive)
			return nil
		},
	}
	cmd.Flags().Int64Var(&marketValue, "market-value", 0, "estimated market value in KRW")
	cmd.Flags().Int64Var(&deduction, "deduction", 0, "assumed rights plus acquisition costs in KRW")
	cmd.Flags().Int64Var(&minimumBid, "minimum-bid", 0, "court minimum bid in KRW")
	return cmd
}
