package assembler

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/wikibinder/internal/model"
)

// UntitledTitle replaces empty node titles in the outline.
const UntitledTitle = "Untitled"

// NormalizeTitle prepares a node title for the outline: NFC normalization,
// whitespace runs (including newlines) collapsed to one space, and
// surrounding whitespace trimmed.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(norm.NFC.String(title)), " ")
	if title == "" {
		return UntitledTitle
	}
	return title
}

// BuildTOC computes the table of contents for the concatenation of an
// optional cover followed by one file per node. pageCounts[i] is the page
// count of the file of nodes[i].
//
// Entry i starts at 1 + coverPages + sum(pageCounts[:i]). The second
// return value is the page count of the whole document.
func BuildTOC(coverPages int, nodes []*model.TreeNode, pageCounts []int) ([]model.TOCEntry, int, error) {
	if len(nodes) != len(pageCounts) {
		return nil, 0, fmt.Errorf("%w: %d nodes, %d page counts", ErrLengthMismatch, len(nodes), len(pageCounts))
	}
	if coverPages < 0 {
		return nil, 0, fmt.Errorf("%w: cover has %d pages", ErrInvalidPageCount, coverPages)
	}

	toc := make([]model.TOCEntry, 0, len(nodes))
	page := 1 + coverPages
	for i, n := range nodes {
		if pageCounts[i] < 1 {
			return nil, 0, fmt.Errorf("%w: %q has %d pages", ErrInvalidPageCount, n.Title, pageCounts[i])
		}
		toc = append(toc, model.TOCEntry{
			Level: n.Level,
			Title: NormalizeTitle(n.Title),
			Page:  page,
		})
		page += pageCounts[i]
	}

	return toc, page - 1, nil
}

// OutlineItem is one node of the nested outline written to the document.
type OutlineItem struct {
	Title string
	Page  int
	Level int
	Kids  []*OutlineItem
}

// BuildOutline nests a flat table of contents by level. An entry becomes
// a child of the closest preceding entry with a smaller level; entries
// with no such predecessor are top-level. Skipped levels are tolerated.
func BuildOutline(toc []model.TOCEntry) []*OutlineItem {
	var (
		roots []*OutlineItem
		stack []*OutlineItem
	)

	for _, e := range toc {
		item := &OutlineItem{Title: e.Title, Page: e.Page, Level: e.Level}

		for len(stack) > 0 && stack[len(stack)-1].Level >= e.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, item)
		} else {
			parent := stack[len(stack)-1]
			parent.Kids = append(parent.Kids, item)
		}
		stack = append(stack, item)
	}

	return roots
}
