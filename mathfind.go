// Package mathfind provides a fluent API for detecting math expression
// regions in scanned document pages.
//
// Basic usage:
//
//	result, warnings, err := mathfind.Open("paper.pdf").Detect()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", mathfind.FormatWarnings(warnings))
//	}
//	for _, page := range result.Pages {
//	    fmt.Println(page.Name, len(page.Regions))
//	}
//
// With options:
//
//	cfg, _ := config.Load("mathfind.yaml")
//	result, _, err := mathfind.Open("scans/").
//	    Config(cfg).
//	    Pages(1, 2).
//	    Workers(4).
//	    Detect()
//
// Input may be a single image, a directory of images or a PDF. Each page is
// binarized, split into connected components ("blobs") and analyzed on its
// own: nested-blob features are extracted, related blobs are merged into
// segments and segments become displayed or embedded regions. The lower
// level packages (grid, feature, segment) are available for custom
// pipelines.
package mathfind

import (
	"fmt"
	"strings"
)

// Open opens an input document and returns an Extractor for fluent
// configuration. Nothing is read until a terminal operation such as Detect
// is called.
//
// Example:
//
//	result, warnings, err := mathfind.Open("page.png").Detect()
func Open(path string) *Extractor {
	return &Extractor{
		path:    path,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := mathfind.Must(mathfind.Open("paper.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustDetect is a helper that wraps a call to Detect and panics if the error
// is non-nil. It discards warnings and returns just the value.
//
// Example:
//
//	result := mathfind.MustDetect(mathfind.Open("page.png").Detect())
func MustDetect[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Warning is a non-fatal problem found while processing a document.
type Warning struct {
	// Page names the page the warning applies to; empty for the document
	Page    string
	Message string
}

func (w Warning) String() string {
	if w.Page == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Page, w.Message)
}

// FormatWarnings joins warnings into a single line.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
