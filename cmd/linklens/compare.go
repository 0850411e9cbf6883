package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/database"
	"github.com/linklens/linklens/internal/model"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [older-run-id newer-run-id]",
		Short: "Compare backlinks between two recorded runs",
		Long: `Compare shows which backlinks were gained and lost between two runs
recorded in the history database. Without arguments, the two most
recent runs are compared. Run IDs come from "linklens history".

Examples:
  # Compare the two most recent runs
  linklens compare

  # Compare two specific runs
  linklens compare 3 7`,
		Args: cobra.RangeArgs(0, 2),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("site", "s", "",
		"When picking runs automatically, only consider runs for this site")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("need zero or two run IDs, got one")
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

	older, newer, err := pickRuns(cmd.Context(), cmd, db, args)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Comparing runs from %s and %s\n\n",
		older.DateScanned.Format("2006-01-02 15:04"),
		newer.DateScanned.Format("2006-01-02 15:04"))

	diffs := model.DiffMatchTables(older.Matches, newer.Matches, newer.Targets)

	changed := false
	for _, diff := range diffs {
		if !diff.Changed() {
			continue
		}
		changed = true

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%+d)\n", diff.Target, len(diff.Gained)-len(diff.Lost))
		for _, rec := range diff.Gained {
			fmt.Fprintf(cmd.OutOrStdout(), "    + %s  [%s]\n", rec.SourceURL, rec.AnchorText)
		}
		for _, rec := range diff.Lost {
			fmt.Fprintf(cmd.OutOrStdout(), "    - %s  [%s]\n", rec.SourceURL, rec.AnchorText)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No backlink changes between the two runs.")
	}

	return nil
}

// pickRuns resolves the two reports to compare, either from explicit
// run IDs or the two most recent runs.
func pickRuns(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, args []string) (older, newer *model.CrawlReport, err error) {
	if len(args) == 2 {
		var olderID, newerID int64
		if _, err := fmt.Sscanf(args[0], "%d", &olderID); err != nil {
			return nil, nil, fmt.Errorf("invalid run ID %q", args[0])
		}
		if _, err := fmt.Sscanf(args[1], "%d", &newerID); err != nil {
			return nil, nil, fmt.Errorf("invalid run ID %q", args[1])
		}

		older, err = db.GetRun(ctx, olderID)
		if err != nil {
			return nil, nil, err
		}
		if older == nil {
			return nil, nil, fmt.Errorf("run %d not found", olderID)
		}

		newer, err = db.GetRun(ctx, newerID)
		if err != nil {
			return nil, nil, err
		}
		if newer == nil {
			return nil, nil, fmt.Errorf("run %d not found", newerID)
		}

		return older, newer, nil
	}

	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return nil, nil, err
	}

	runs, err := db.ListRuns(ctx, site, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(runs) < 2 {
		return nil, nil, fmt.Errorf("need at least two recorded runs to compare, have %d", len(runs))
	}

	// ListRuns is newest first.
	newer, err = db.GetRun(ctx, runs[0].ID)
	if err != nil {
		return nil, nil, err
	}
	older, err = db.GetRun(ctx, runs[1].ID)
	if err != nil {
		return nil, nil, err
	}
	if older == nil || newer == nil {
		return nil, nil, fmt.Errorf("run disappeared while comparing")
	}

	return older, newer, nil
}
