package model

// TOCEntry is one outline entry of the bound output document.
type TOCEntry struct {
	// Level is the nesting level (1 for top-level entries).
	Level int `json:"level"`

	// Title is the normalized node title.
	Title string `json:"title"`

	// Page is the 1-based starting page inside the output document.
	Page int `json:"page"`
}

// TOCEqual reports whether two tables of contents have the same structure.
func TOCEqual(a, b []TOCEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
