package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzPDFSource renders the pages of a PDF with go-fitz.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
	name string
}

// NewFitzPDFSource opens the PDF at path.
func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &FitzPDFSource{doc: doc, path: path, name: name}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// PageName returns "<file name>-<page number>.png", numbering from 1.
func (f *FitzPDFSource) PageName(index int) string {
	return fmt.Sprintf("%s-%d.png", f.name, index+1)
}

// GetPageDimensions returns the page size in points.
func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// RenderPage renders one page. Each call opens its own document handle so
// pages can be rendered concurrently.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= f.PageCount() {
		return nil, fmt.Errorf("%w: %d", ErrPageRange, index)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
