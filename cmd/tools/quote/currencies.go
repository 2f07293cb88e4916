package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCurrenciesCmd(newEngine EngineFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "Show the configured currency table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			engine, err := newEngine()
			if err != nil {
				return err
			}
			profiles := engine.Currency.Profiles()
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), profiles)
			}
			w := cmd.OutOrStdout()
			base := engine.Currency.Base().Code
			for _, p := range profiles {
				marker := ""
				if p.Code == base {
					marker = " (base)"
				}
				discount := ""
				if p.DiscountEligible {
					discount = " discount-eligible"
				}
				_, _ = fmt.Fprintf(w, "%s %s x%v%s%s\n", p.Code, p.Symbol, p.FactorFromBase, discount, marker)
			}
			return nil
		},
	}
}
