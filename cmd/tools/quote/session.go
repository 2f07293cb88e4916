package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/storefront-pricing/internal/pricing"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

func newSessionCmd(newEngine EngineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Quote a live offering from a session configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, newEngine)
		},
	}
	f := cmd.Flags()
	f.Float64("rate", 0, "hourly rate in the base currency")
	f.String("currency", "", "display currency (defaults to the base currency)")
	f.Int("sessions", 1, "sessions per week")
	f.Int("hours", 1, "hours per session")
	f.String("format", string(session.FormatOneOnOne), "session format: one-on-one, small-group or large-group")
	f.String("plan", pricing.DefaultPlanID, "payment plan id")
	f.Int("limit", 40, "maximum weekly hours")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

func runSession(cmd *cobra.Command, newEngine EngineFactory) error {
	output, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	rate, _ := f.GetFloat64("rate")
	code, _ := f.GetString("currency")
	sessions, _ := f.GetInt("sessions")
	hours, _ := f.GetInt("hours")
	rawFormat, _ := f.GetString("format")
	planID, _ := f.GetString("plan")
	limit, _ := f.GetInt("limit")

	format, err := session.ParseFormat(rawFormat)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}

	base := engine.Currency.Base().Code
	req := pricing.Request{
		Offering: pricing.Offering{
			ID:    "cli",
			Kind:  pricing.KindCourse,
			Title: "Live sessions",
			Matrix: &session.Matrix{
				SessionsPerWeek: session.Range{Min: 1, Max: 7, Default: 1},
				HoursPerSession: session.Range{Min: 1, Max: 8, Default: 1},
				TotalHoursLimit: limit,
			},
			HourlyRates: map[string]float64{base: rate},
		},
		Customization: &session.Customization{
			SessionsPerWeek: sessions,
			HoursPerSession: hours,
			Format:          format,
		},
		Currency: code,
		PlanID:   planID,
	}
	q, err := engine.Quote(req)
	if err != nil {
		return err
	}
	if output == "json" {
		return writeJSON(cmd.OutOrStdout(), q)
	}
	return printQuote(cmd.OutOrStdout(), q)
}

func printQuote(w io.Writer, q pricing.Quote) error {
	if q.CurrencyFallback {
		_, _ = fmt.Fprintf(w, "Currency:   %s (requested %s)\n", q.Currency, q.RequestedCurrency)
	} else {
		_, _ = fmt.Fprintf(w, "Currency:   %s\n", q.Currency)
	}
	if q.Monthly != nil {
		for _, line := range q.Monthly.Breakdown {
			_, _ = fmt.Fprintf(w, "%s: %s\n", line.Label, line.Value)
		}
	}
	subtotal := q.Display.Subtotal.Primary
	if q.Display.Subtotal.StrikeThrough != "" {
		subtotal += " (was " + q.Display.Subtotal.StrikeThrough + ")"
	}
	_, _ = fmt.Fprintf(w, "Subtotal:   %s\n", subtotal)
	_, _ = fmt.Fprintf(w, "Plan:       %s\n", q.Plan.Name)
	_, _ = fmt.Fprintf(w, "Due today:  %s\n", q.Display.DueToday)
	if q.Plan.IsInstallment() {
		_, _ = fmt.Fprintf(w, "Then:       %d x %s\n", q.Breakdown.Installments-1, q.Display.PerInstallment)
		if q.Display.ProcessingFee != "" {
			_, _ = fmt.Fprintf(w, "Fee:        %s\n", q.Display.ProcessingFee)
		}
	}
	_, _ = fmt.Fprintf(w, "Total:      %s\n", q.Display.TotalWithFee)
	return nil
}
