package database

import (
	"fmt"

	"github.com/nao1215/wikibinder/internal/model"
)

// Comparison is the result of checking two runs for equivalence.
// Two runs are equivalent when their TOCs are equal entry by entry and
// their total page counts match.
type Comparison struct {
	Base        *RunRecord
	Other       *RunRecord
	Equivalent  bool
	Differences []string
}

// CompareRuns compares base against other.
func CompareRuns(base, other *RunRecord) *Comparison {
	c := &Comparison{Base: base, Other: other}

	if base.TotalPages != other.TotalPages {
		c.Differences = append(c.Differences,
			fmt.Sprintf("total pages: %d -> %d", base.TotalPages, other.TotalPages))
	}
	if base.CoverPages != other.CoverPages {
		c.Differences = append(c.Differences,
			fmt.Sprintf("cover pages: %d -> %d", base.CoverPages, other.CoverPages))
	}
	if len(base.TOC) != len(other.TOC) {
		c.Differences = append(c.Differences,
			fmt.Sprintf("entries: %d -> %d", len(base.TOC), len(other.TOC)))
	}

	for i := range max(len(base.TOC), len(other.TOC)) {
		var a, b *model.TOCEntry
		if i < len(base.TOC) {
			a = &base.TOC[i]
		}
		if i < len(other.TOC) {
			b = &other.TOC[i]
		}
		switch {
		case a == nil:
			c.Differences = append(c.Differences, fmt.Sprintf("entry %d: added %s", i, describeEntry(*b)))
		case b == nil:
			c.Differences = append(c.Differences, fmt.Sprintf("entry %d: removed %s", i, describeEntry(*a)))
		case *a != *b:
			c.Differences = append(c.Differences,
				fmt.Sprintf("entry %d: %s -> %s", i, describeEntry(*a), describeEntry(*b)))
		}
	}

	c.Equivalent = len(c.Differences) == 0
	return c
}

func describeEntry(e model.TOCEntry) string {
	return fmt.Sprintf("%q (level %d, page %d)", e.Title, e.Level, e.Page)
}
