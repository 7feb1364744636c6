// Package source enumerates the page images of an input document. A document
// is a single image file, a directory of image files or a PDF whose pages are
// rendered with MuPDF.
package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsawler/mathfind/imaging"
)

// DefaultDPI is the resolution PDF pages are rendered at when none is given.
const DefaultDPI = 300

var (
	// ErrUnsupported is returned for inputs that are neither images nor PDFs.
	ErrUnsupported = errors.New("unsupported input")

	// ErrPageRange is returned for page indexes outside the document.
	ErrPageRange = errors.New("page index out of range")
)

// Source is a paged document.
type Source interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageName returns a name identifying the page in result files.
	PageName(index int) string

	// RenderPage returns the page image. Image sources ignore dpi.
	RenderPage(index int, dpi int) (image.Image, error)

	Close() error
}

// Open returns the source for path: a PDF source for ".pdf" files, an image
// source for image files and for directories (all image files it contains,
// sorted by name).
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	if info.IsDir() {
		return OpenDir(path)
	}

	switch {
	case strings.EqualFold(filepath.Ext(path), ".pdf"):
		return NewFitzPDFSource(path)
	case imaging.IsImageFile(path):
		return NewImageSource(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// ImageSource is a document made of image files, one page per file.
type ImageSource struct {
	paths []string
}

// NewImageSource creates a source over the given image files, in order.
func NewImageSource(paths ...string) *ImageSource {
	return &ImageSource{paths: paths}
}

// OpenDir creates a source over the image files of dir, sorted by name.
func OpenDir(dir string) (*ImageSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrUnsupported, dir)
	}
	sort.Strings(paths)
	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) PageName(index int) string {
	if index < 0 || index >= len(s.paths) {
		return ""
	}
	return filepath.Base(s.paths[index])
}

func (s *ImageSource) RenderPage(index int, _ int) (image.Image, error) {
	if index < 0 || index >= len(s.paths) {
		return nil, fmt.Errorf("%w: %d", ErrPageRange, index)
	}
	return imaging.DecodeFile(s.paths[index])
}

func (s *ImageSource) Close() error {
	return nil
}
