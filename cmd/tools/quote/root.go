package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/storefront-pricing/internal/pricing"
)

// EngineFactory builds the pricing engine a command runs against.
type EngineFactory func() (*pricing.Engine, error)

// NewRootCmd creates the root command of the quote tool.
func NewRootCmd(newEngine EngineFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "quote",
		Short:         "Price offerings from the command line",
		Long:          "quote runs the storefront pricing engine locally using the same environment configuration as the API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("output", "o", "text", "output format: text or json")

	root.AddCommand(newSessionCmd(newEngine))
	root.AddCommand(newPlansCmd(newEngine))
	root.AddCommand(newCurrenciesCmd(newEngine))
	return root
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "text", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
