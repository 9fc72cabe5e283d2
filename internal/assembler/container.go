package assembler

import (
	"fmt"
	"io"
	"os"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Container is the page-counting document capability the assembler needs.
type Container interface {
	// PageCount opens the document at path and returns its page count.
	PageCount(path string) (int, error)

	// Merge concatenates inputs, in order, into output.
	Merge(inputs []string, output string) error

	// ApplyOutline replaces the outline of the document at path.
	ApplyOutline(path string, outline []*OutlineItem) error
}

var disableConfigDir sync.Once

// PDFContainer implements Container for PDF files. Page counts are read
// with ledongthuc/pdf; merging and bookmarks are written with pdfcpu.
type PDFContainer struct {
	conf *pdfmodel.Configuration
}

// NewPDFContainer creates a PDFContainer. pdfcpu is kept away from the
// user's config directory.
func NewPDFContainer() *PDFContainer {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return &PDFContainer{conf: conf}
}

// PageCount implements Container.
func (c *PDFContainer) PageCount(path string) (n int, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdflib.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return r.NumPage(), nil
}

// Merge implements Container.
func (c *PDFContainer) Merge(inputs []string, output string) error {
	switch len(inputs) {
	case 0:
		return ErrNothingToAssemble
	case 1:
		return copyFile(inputs[0], output)
	default:
		return api.MergeCreateFile(inputs, output, false, c.conf)
	}
}

// ApplyOutline implements Container. The document is rewritten through a
// sibling temporary file.
func (c *PDFContainer) ApplyOutline(path string, outline []*OutlineItem) error {
	if len(outline) == 0 {
		return nil
	}

	tmp := path + ".outline"
	if err := api.AddBookmarksFile(path, tmp, toBookmarks(outline), true, c.conf); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func toBookmarks(items []*OutlineItem) []pdfcpu.Bookmark {
	bms := make([]pdfcpu.Bookmark, 0, len(items))
	for _, item := range items {
		bms = append(bms, pdfcpu.Bookmark{
			Title:    item.Title,
			PageFrom: item.Page,
			Kids:     toBookmarks(item.Kids),
		})
	}
	return bms
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src is a work dir or cover path
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // dst is derived from the output path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
