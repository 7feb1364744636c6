package mathfind

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/mathfind/config"
	"github.com/tsawler/mathfind/ocr"
	"github.com/tsawler/mathfind/results"
	"github.com/tsawler/mathfind/source"
)

// Result holds the analysis of every selected page, in page order.
type Result struct {
	Pages []*PageResult
}

// Rects returns the regions of all pages in raster coordinates.
func (r *Result) Rects() []results.Rect {
	var rects []results.Rect
	for _, p := range r.Pages {
		rects = append(rects, p.Rects()...)
	}
	return rects
}

// Detections returns the regions of all pages as a COCO-style detection set.
// Pages without regions are listed as images with no detections.
func (r *Result) Detections() *results.Detections {
	d := results.FromRects(r.Rects())
	for _, p := range r.Pages {
		d.AddImage(p.Name)
	}
	return d
}

// Regions returns the total number of regions found.
func (r *Result) Regions() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Regions)
	}
	return n
}

// Extractor provides a fluent interface for detecting math regions in image
// files, image directories and PDFs. Each configuration method returns a new
// Extractor instance, making it safe for concurrent use and allowing method
// chaining.
type Extractor struct {
	// Source
	path string
	src  source.Source

	// Lifecycle
	ownsSource   bool // true if we opened the source and should close it
	sourceOpened bool // true if source has been opened

	// Configuration
	options DetectOptions

	// Accumulated error (fail-fast)
	err error
}

// FromSource creates an Extractor from an already-opened source. This is
// useful when you need more control over the source lifecycle.
// Note: The caller is responsible for closing the source.
func FromSource(src source.Source) *Extractor {
	return &Extractor{
		src:          src,
		ownsSource:   false,
		sourceOpened: true,
		options:      defaultOptions(),
	}
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		path:         e.path,
		src:          e.src,
		ownsSource:   e.ownsSource,
		sourceOpened: e.sourceOpened,
		options:      e.options.clone(),
		err:          e.err,
	}
}

// ensureSource opens the source if not already open.
func (e *Extractor) ensureSource() error {
	if e.sourceOpened {
		return nil
	}
	if e.path == "" {
		return fmt.Errorf("no input specified")
	}
	src, err := source.Open(e.path)
	if err != nil {
		return err
	}
	e.src = src
	e.ownsSource = true
	e.sourceOpened = true
	return nil
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.ownsSource && e.src != nil {
		err := e.src.Close()
		e.src = nil
		e.ownsSource = false
		e.sourceOpened = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Config replaces the detector configuration.
//
// Example:
//
//	cfg, _ := config.Load("mathfind.yaml")
//	result, _, err := mathfind.Open("page.png").Config(cfg).Detect()
func (e *Extractor) Config(c config.Config) *Extractor {
	newExt := e.clone()
	newExt.options.config = c
	return newExt
}

// Pages specifies which pages to analyze (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	result, _, err := mathfind.Open("paper.pdf").Pages(1, 3, 5).Detect()
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to analyze (1-indexed, inclusive).
//
// Example:
//
//	result, _, err := mathfind.Open("paper.pdf").PageRange(5, 10).Detect()
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// Recognizer sets the OCR engine used to identify ordinary text. Without
// one, Detect creates a Tesseract client when the configuration enables
// OCR.
func (e *Extractor) Recognizer(r ocr.Recognizer) *Extractor {
	newExt := e.clone()
	newExt.options.recognizer = r
	return newExt
}

// WithoutRecognition analyzes every blob as unrecognized.
func (e *Extractor) WithoutRecognition() *Extractor {
	newExt := e.clone()
	newExt.options.recognizer = nil
	newExt.options.config.OCR.Enabled = false
	return newExt
}

// Logger sets the logger; by default nothing is logged.
func (e *Extractor) Logger(l *Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = l
	return newExt
}

// Workers sets how many pages are analyzed concurrently.
func (e *Extractor) Workers(n int) *Extractor {
	newExt := e.clone()
	newExt.options.workers = n
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// PageCount returns the number of pages of the input.
// Note: The source remains open; call Close when done.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if err := e.ensureSource(); err != nil {
		return 0, err
	}
	return e.src.PageCount(), nil
}

// Detect analyzes the selected pages and closes the source.
//
// Example:
//
//	result, warnings, err := mathfind.Open("page.png").Detect()
func (e *Extractor) Detect() (*Result, []Warning, error) {
	return e.DetectContext(context.Background())
}

// DetectContext is Detect with a context. Pages are analyzed concurrently,
// each with its own blob index; the first failure cancels the rest.
func (e *Extractor) DetectContext(ctx context.Context) (*Result, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	cfg := e.options.config
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := e.ensureSource(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	indices, err := e.resolvePages()
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	recognizer := e.options.recognizer
	if recognizer == nil && cfg.OCR.Enabled {
		client, err := NewRecognizer(cfg)
		switch {
		case IsOCRUnavailable(err):
			warnings = append(warnings, Warning{Message: "OCR unavailable, analyzing without recognition"})
		case err != nil:
			return nil, nil, err
		case client != nil:
			defer client.Close()
			recognizer = client
		}
	}

	logger := e.options.logger
	if logger == nil {
		logger = NoopLogger()
	}
	analyzer := NewAnalyzer(cfg, recognizer, logger)

	workers := e.options.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pages := make([]*PageResult, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pi := range indices {
		g.Go(func() error {
			img, err := e.src.RenderPage(pi, cfg.DPI)
			if err != nil {
				return fmt.Errorf("failed to render page %d: %w", pi+1, err)
			}
			res, err := analyzer.Analyze(gctx, img, e.src.PageName(pi))
			if err != nil {
				return fmt.Errorf("page %d: %w", pi+1, err)
			}
			pages[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}

	for _, p := range pages {
		if p.Blobs == 0 {
			warnings = append(warnings, Warning{Page: p.Name, Message: "page is blank"})
		}
	}
	return &Result{Pages: pages}, warnings, nil
}

// resolvePages converts the 1-indexed page selection into sorted, unique
// 0-indexed pages.
func (e *Extractor) resolvePages() ([]int, error) {
	pageCount := e.src.PageCount()

	// If no pages specified, use all pages
	if len(e.options.pages) == 0 {
		pageIndices := make([]int, pageCount)
		for i := 0; i < pageCount; i++ {
			pageIndices[i] = i
		}
		return pageIndices, nil
	}

	// Convert 1-indexed to 0-indexed and validate
	seen := make(map[int]bool)
	var pageIndices []int
	for _, p := range e.options.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		zeroIndexed := p - 1
		if !seen[zeroIndexed] {
			seen[zeroIndexed] = true
			pageIndices = append(pageIndices, zeroIndexed)
		}
	}

	// Sort pages in order
	sort.Ints(pageIndices)
	return pageIndices, nil
}
