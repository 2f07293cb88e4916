package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pricing/internal/app"
	"github.com/noah-isme/storefront-pricing/internal/config"
	"github.com/noah-isme/storefront-pricing/internal/pricing"
)

func main() {
	root := NewRootCmd(func() (*pricing.Engine, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return app.NewEngine(cfg, zerolog.New(os.Stderr).Level(zerolog.WarnLevel))
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "quote:", err)
		os.Exit(1)
	}
}
