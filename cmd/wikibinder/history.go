package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wikibinder/internal/config"
	"github.com/nao1215/wikibinder/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded export runs",
		Long: `History lists successful export runs recorded by 'wikibinder export',
newest first.

Examples:
  # Runs of every space
  wikibinder history

  # The last 5 runs of one space as JSON
  wikibinder history --space 7355566671643279392 --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("space", "s", "", "Only list runs of this space")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs (0 = all)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	spaceID, err := cmd.Flags().GetString("space")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), spaceID, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}
	printHistory(out, runs)
	return nil
}

func printHistory(out io.Writer, runs []database.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No export runs recorded.")
		fmt.Fprintln(out, "\nUse 'wikibinder export' to export a space.")
		return
	}

	fmt.Fprintf(out, "Export history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-20s  %-6s  %-6s  %s\n", "ID", "Date", "Space", "Nodes", "Pages", "Duration")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 78))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-20s  %-6d  %-6d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.SpaceID,
			r.NodeCount,
			r.TotalPages,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
		)
	}

	fmt.Fprintln(out, "\nUse 'wikibinder compare' to compare the latest two runs of a space.")
	fmt.Fprintln(out, "Use 'wikibinder compare <id> <id>' to compare two specific runs.")
}
