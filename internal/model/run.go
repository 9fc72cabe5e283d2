package model

import "time"

// Run records everything about a single export run.
// The pipeline steps populate it in order: the crawl step sets Tree and
// Nodes, the export step sets Jobs, the assemble step sets TOC, page
// counts and OutputPath.
type Run struct {
	// SpaceID is the exported wiki space.
	SpaceID string `json:"space_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// WorkDir is the temporary directory holding downloaded files.
	// It is removed when the run ends.
	WorkDir string `json:"-"`

	// Tree is the discovered hierarchy.
	Tree *Tree `json:"-"`

	// Nodes is the flattened discovery sequence.
	Nodes []*TreeNode `json:"-"`

	// Jobs holds one export job per node, indexed like Nodes.
	Jobs []*ExportJob `json:"jobs,omitempty"`

	// CoverPath is the optional cover document prepended to the output.
	CoverPath string `json:"cover_path,omitempty"`

	// CoverPages is the page count of the cover, 0 without a cover.
	CoverPages int `json:"cover_pages"`

	// TOC is the outline written into the output document.
	TOC []TOCEntry `json:"toc"`

	// TotalPages is the page count of the output document.
	TotalPages int `json:"total_pages"`

	// Target is where the output document is to be written.
	Target string `json:"target"`

	// OutputPath is the bound output document. It is only set once the
	// document was written successfully.
	OutputPath string `json:"output_path,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps"`

	// Error holds the fatal error that aborted the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRun creates a Run for spaceID.
func NewRun(spaceID string) *Run {
	return &Run{
		SpaceID:        spaceID,
		StartedAt:      time.Now(),
		Nodes:          make([]*TreeNode, 0),
		TOC:            make([]TOCEntry, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Succeeded reports whether the run produced an output document.
func (r *Run) Succeeded() bool {
	return r.Error == nil && r.OutputPath != ""
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
