// Package main provides the entry point for the Ecom-Crawler CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for Ecom-Crawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecomcrawler",
		Short: "Product page discovery crawler for e-commerce websites",
		Long: `Ecom-Crawler discovers product pages on e-commerce websites.

It crawls a site's internal link graph breadth-first from the homepage,
classifies each page by URL patterns and content signals, and reports
the product URLs it found. Results can be persisted for comparison
across crawls.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
