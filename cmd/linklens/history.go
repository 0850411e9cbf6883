package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past crawl runs",
		Long: `History lists the crawl runs recorded in the local database, newest
first. Use the run IDs with "linklens compare" to see how backlinks
changed between two runs.

Examples:
  # All recorded runs
  linklens history

  # The last five runs that crawled example.com
  linklens history --site example.com --limit 5`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("site", "s", "",
		"Only show runs that crawled this site")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of runs to show (0 = all)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no history database found (run a scan first): %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), site, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSITES\tPAGES\tMATCHES\tSTATUS")
	for _, run := range runs {
		status := "ok"
		switch {
		case run.TimedOut:
			status = "timed out"
		case run.Error != "":
			status = "error"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04"),
			strings.Join(run.Sites, ","),
			run.PagesCrawled,
			run.TotalMatches,
			status,
		)
	}

	return tw.Flush()
}
