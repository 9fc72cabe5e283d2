package report

import (
	"time"

	"github.com/nao1215/wikibinder/internal/model"
)

// Status values of a Manifest.
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Manifest is the format-independent view of a run that every writer
// renders.
type Manifest struct {
	Version    string        `json:"version,omitempty"`
	SpaceID    string        `json:"space_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	CoverPages int           `json:"cover_pages"`
	TotalPages int           `json:"total_pages"`
	TotalBytes int64         `json:"total_bytes"`
	Steps      []string      `json:"performed_steps"`
	Documents  []Document    `json:"documents"`
}

// Document is one exported wiki node.
type Document struct {
	Index   int              `json:"index"`
	Title   string           `json:"title"`
	Level   int              `json:"level"`
	ObjType model.ObjectType `json:"obj_type"`
	Token   string           `json:"obj_token"`
	// Page is the starting page in the output, 0 when nothing was bound.
	Page  int   `json:"page,omitempty"`
	Bytes int64 `json:"bytes,omitempty"`
}

// NewManifest summarizes run.
// Documents follow the discovery order. Jobs and TOC entries are matched
// to nodes by index when present.
func NewManifest(run *model.Run, version string) *Manifest {
	m := &Manifest{
		Version:    version,
		SpaceID:    run.SpaceID,
		StartedAt:  run.StartedAt,
		Duration:   run.Duration(),
		Status:     StatusComplete,
		Error:      run.ErrorMessage,
		OutputPath: run.OutputPath,
		CoverPages: run.CoverPages,
		TotalPages: run.TotalPages,
		Steps:      run.PerformedSteps,
		Documents:  make([]Document, 0, len(run.Nodes)),
	}
	if !run.Succeeded() {
		m.Status = StatusFailed
		if m.Error == "" && run.Error != nil {
			m.Error = run.Error.Error()
		}
	}

	for i, node := range run.Nodes {
		doc := Document{
			Index:   i,
			Title:   node.Title,
			Level:   node.Level,
			ObjType: node.ObjType,
			Token:   node.ObjToken,
		}
		if i < len(run.TOC) {
			doc.Title = run.TOC[i].Title
			doc.Page = run.TOC[i].Page
		}
		if i < len(run.Jobs) && run.Jobs[i] != nil {
			doc.Bytes = run.Jobs[i].Size
			m.TotalBytes += run.Jobs[i].Size
		}
		m.Documents = append(m.Documents, doc)
	}
	return m
}

// TypeCounts returns the number of documents per object type, in first
// appearance order.
func (m *Manifest) TypeCounts() ([]model.ObjectType, map[model.ObjectType]int) {
	var order []model.ObjectType
	counts := make(map[model.ObjectType]int)
	for _, d := range m.Documents {
		if _, ok := counts[d.ObjType]; !ok {
			order = append(order, d.ObjType)
		}
		counts[d.ObjType]++
	}
	return order, counts
}
