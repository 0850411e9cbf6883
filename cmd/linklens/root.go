// Package main provides the entry point for the LinkLens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for LinkLens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linklens",
		Short: "Internal backlink finder for WordPress sites",
		Long: `LinkLens finds the internal backlinks pointing at your chosen target URLs.

It reads a site's wp-sitemap.xml index, crawls every page listed in the
child sitemaps, and records each content-region link whose destination
matches a target. Results are written as one CSV file per target.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewSuggestCmd())
	cmd.AddCommand(NewHistoryCmd())
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
