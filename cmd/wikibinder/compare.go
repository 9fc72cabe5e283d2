package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wikibinder/internal/config"
	"github.com/nao1215/wikibinder/internal/database"
	"github.com/spf13/cobra"
)

// ErrRunsDiffer is returned by compare --fail-on-diff when the runs are
// not equivalent.
var ErrRunsDiffer = errors.New("runs differ")

// comparisonOutput is the JSON form of a comparison.
type comparisonOutput struct {
	BaseID      int64    `json:"base_id"`
	OtherID     int64    `json:"other_id"`
	SpaceID     string   `json:"space_id"`
	Equivalent  bool     `json:"equivalent"`
	Differences []string `json:"differences"`
}

// NewCompareCmd creates the compare command.
// Two runs of the same unchanged space must produce the same table of
// contents and page count; compare checks exactly that.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [base-id other-id]",
		Short: "Compare two recorded export runs",
		Long: `Compare checks two recorded runs for equivalence: the same table of
contents entry by entry (level, title, starting page) and the same total
page count. Differences are listed.

Without arguments the two latest runs of --space are compared.

Examples:
  # Compare the latest two runs of the default space
  wikibinder compare

  # Compare specific runs (IDs from 'wikibinder history')
  wikibinder compare 3 7

  # Fail when the runs differ, for use in CI
  wikibinder compare --fail-on-diff`,
		Args: cobra.MatchAll(cobra.RangeArgs(0, 2), func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				return errors.New("specify two run IDs or none")
			}
			return nil
		}),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("space", "s", config.DefaultSpaceID, "Space whose latest runs are compared")
	cmd.Flags().BoolP("json", "j", false, "Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output comparison result in Markdown format")
	cmd.Flags().Bool("fail-on-diff", false, "Exit with an error when the runs differ")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	spaceID, err := flags.GetString("space")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	failOnDiff, err := flags.GetBool("fail-on-diff")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	// Parse IDs before opening the database.
	var ids []int64
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	var base, other *database.RunRecord
	if len(ids) == 2 {
		if base, err = db.GetRun(ctx, ids[0]); err != nil {
			return err
		}
		if other, err = db.GetRun(ctx, ids[1]); err != nil {
			return err
		}
	} else {
		latest, err := db.LatestRuns(ctx, spaceID, 2)
		if err != nil {
			return err
		}
		if len(latest) < 2 {
			return fmt.Errorf("need two recorded runs of space %s, found %d", spaceID, len(latest))
		}
		base, other = latest[1], latest[0]
	}

	result := database.CompareRuns(base, other)

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		err = outputComparisonJSON(out, result)
	case markdownOutput:
		err = outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
	}
	if err != nil {
		return err
	}

	if failOnDiff && !result.Equivalent {
		return fmt.Errorf("%w: %d difference(s)", ErrRunsDiffer, len(result.Differences))
	}
	return nil
}

func outputComparisonJSON(out io.Writer, result *database.Comparison) error {
	differences := result.Differences
	if differences == nil {
		differences = []string{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(comparisonOutput{
		BaseID:      result.Base.ID,
		OtherID:     result.Other.ID,
		SpaceID:     result.Other.SpaceID,
		Equivalent:  result.Equivalent,
		Differences: differences,
	})
}

func outputComparisonMarkdown(out io.Writer, result *database.Comparison) error {
	md := markdown.NewMarkdown(out)
	md.H1f("Run Comparison: #%d vs #%d", result.Base.ID, result.Other.ID)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Base", "Other"},
		Rows: [][]string{
			{"Run", "#" + strconv.FormatInt(result.Base.ID, 10), "#" + strconv.FormatInt(result.Other.ID, 10)},
			{"Date", result.Base.StartedAt.Format("2006-01-02 15:04"), result.Other.StartedAt.Format("2006-01-02 15:04")},
			{"Entries", strconv.Itoa(len(result.Base.TOC)), strconv.Itoa(len(result.Other.TOC))},
			{"Pages", strconv.Itoa(result.Base.TotalPages), strconv.Itoa(result.Other.TotalPages)},
		},
	})
	md.PlainText("")

	if result.Equivalent {
		md.Tip("The runs are equivalent.")
		return md.Build()
	}

	md.Warningf("The runs differ in %d place(s).", len(result.Differences))
	md.PlainText("")
	md.H2("Differences")
	md.PlainText("")
	md.BulletList(result.Differences...)
	return md.Build()
}

func outputComparisonText(out io.Writer, result *database.Comparison) {
	fmt.Fprintf(out, "Run Comparison: #%d (%s) vs #%d (%s)\n",
		result.Base.ID, result.Base.StartedAt.Local().Format("2006-01-02 15:04"),
		result.Other.ID, result.Other.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  entries: %d vs %d, pages: %d vs %d\n\n",
		len(result.Base.TOC), len(result.Other.TOC), result.Base.TotalPages, result.Other.TotalPages)

	if result.Equivalent {
		fmt.Fprintln(out, "Equivalent: same table of contents and page count.")
		return
	}

	fmt.Fprintf(out, "Different (%d):\n", len(result.Differences))
	for _, d := range result.Differences {
		fmt.Fprintf(out, "  - %s\n", d)
	}
}
