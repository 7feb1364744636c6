package mathfind

import (
	"github.com/tsawler/mathfind/config"
	"github.com/tsawler/mathfind/ocr"
)

// DetectOptions holds configuration for detection.
type DetectOptions struct {
	// Page selection (1-indexed in API, stored as-is)
	pages []int

	config     config.Config
	recognizer ocr.Recognizer
	logger     *Logger

	// Pages analyzed concurrently; 0 means one per CPU
	workers int
}

// defaultOptions returns the default detection options.
func defaultOptions() DetectOptions {
	return DetectOptions{
		pages:   nil, // nil means all pages
		config:  config.Default(),
		workers: 0,
	}
}

// clone creates a deep copy of DetectOptions.
func (o DetectOptions) clone() DetectOptions {
	newOpts := DetectOptions{
		config:     o.config,
		recognizer: o.recognizer,
		logger:     o.logger,
		workers:    o.workers,
	}

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
