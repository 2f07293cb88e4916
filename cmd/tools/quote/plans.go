package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlansCmd(newEngine EngineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List the payment plans offered for a subtotal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			subtotal, _ := cmd.Flags().GetFloat64("subtotal")
			code, _ := cmd.Flags().GetString("currency")
			engine, err := newEngine()
			if err != nil {
				return err
			}
			options, err := engine.Plans(subtotal, code)
			if err != nil {
				return err
			}
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), options)
			}
			w := cmd.OutOrStdout()
			if len(options) == 1 {
				_, _ = fmt.Fprintln(w, "Installments unavailable for this subtotal.")
			}
			for _, o := range options {
				_, _ = fmt.Fprintf(w, "%-12s %-20s due today %s\n", o.Plan.ID, o.Plan.Name, o.DueToday)
			}
			return nil
		},
	}
	cmd.Flags().Float64("subtotal", 0, "discounted subtotal in the selected currency")
	cmd.Flags().String("currency", "", "currency of the subtotal")
	_ = cmd.MarkFlagRequired("subtotal")
	return cmd
}
