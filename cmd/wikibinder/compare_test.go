package main

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/wikibinder/internal/model"
)

func TestCompareCmd(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	changedTOC := []model.TOCEntry{
		{Level: 1, Title: "Intro", Page: 1},
		{Level: 2, Title: "Setup", Page: 4},
	}

	t.Run("latest two runs equivalent", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedRun(t, dir, "space-a", base, 4, sampleTOC)
		seedRun(t, dir, "space-a", base.Add(time.Hour), 4, sampleTOC)

		out, err := executeRoot(t, "compare", "--db-dir", dir, "--space", "space-a", "--fail-on-diff")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Equivalent: same table of contents and page count.") {
			t.Errorf("expected equivalence, got:\n%s", out)
		}
	})

	t.Run("explicit ids with differences", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a := seedRun(t, dir, "space-a", base, 4, sampleTOC)
		b := seedRun(t, dir, "space-a", base.Add(time.Hour), 5, changedTOC)

		out, err := executeRoot(t, "compare", "--db-dir", dir, "--json",
			strconv.FormatInt(a, 10), strconv.FormatInt(b, 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got comparisonOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, out)
		}
		want := comparisonOutput{
			BaseID:      a,
			OtherID:     b,
			SpaceID:     "space-a",
			Equivalent:  false,
			Differences: []string{
				"total pages: 4 -> 5",
				`entry 1: "Setup" (level 2, page 3) -> "Setup" (level 2, page 4)`,
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("comparison mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fail on diff", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedRun(t, dir, "space-a", base, 4, sampleTOC)
		seedRun(t, dir, "space-a", base.Add(time.Hour), 5, changedTOC)

		out, err := executeRoot(t, "compare", "--db-dir", dir, "--space", "space-a", "--fail-on-diff")
		if !errors.Is(err, ErrRunsDiffer) {
			t.Fatalf("expected ErrRunsDiffer, got %v", err)
		}
		if !strings.Contains(out, "Different (2):") {
			t.Errorf("expected differences, got:\n%s", out)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedRun(t, dir, "space-a", base, 4, sampleTOC)
		seedRun(t, dir, "space-a", base.Add(time.Hour), 5, changedTOC)

		out, err := executeRoot(t, "compare", "--db-dir", dir, "--space", "space-a", "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# Run Comparison: #1 vs #2", "## Differences", "total pages: 4 -> 5"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("not enough runs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedRun(t, dir, "space-a", base, 4, sampleTOC)

		if _, err := executeRoot(t, "compare", "--db-dir", dir, "--space", "space-a"); err == nil {
			t.Error("expected error with a single recorded run")
		}
	})

	t.Run("argument validation", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			args []string
		}{
			{name: "single id", args: []string{"compare", "1"}},
			{name: "three ids", args: []string{"compare", "1", "2", "3"}},
			{name: "non numeric", args: []string{"compare", "--db-dir", t.TempDir(), "a", "b"}},
			{name: "json and markdown", args: []string{"compare", "--json", "--markdown"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				if _, err := executeRoot(t, tt.args...); err == nil {
					t.Error("expected error")
				}
			})
		}
	})
}
