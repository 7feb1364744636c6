// Package feature computes per-blob features for math-expression detection.
//
// # Extractors
//
// An [Extractor] runs a single preprocessing pass over a blob index, storing
// one [blob.Data] value in a slot of every blob, and afterwards answers
// feature queries for individual blobs from that stored data. Extractors are
// created through the package registry and grouped in categories:
//
//   - geometry: nested, aligned and stacked extractors
//   - recognition: operator classification from OCR results
//
// # Sets
//
// A [Set] binds extractors to one index and preprocesses each of them
// exactly once, on first use:
//
//	set := feature.NewSet(idx, feature.DefaultConfig())
//	nested, err := set.Nested()
//	if err != nil {
//	    return err
//	}
//	count, err := nested.Count(b)
package feature

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/tsawler/mathfind/blob"
)

var (
	// ErrNotPreprocessed is returned when features are requested from an
	// extractor whose preprocessing pass has not completed.
	ErrNotPreprocessed = errors.New("feature extractor not preprocessed")

	// ErrAlreadyPreprocessed is returned when an extractor is preprocessed a
	// second time.
	ErrAlreadyPreprocessed = errors.New("feature extractor already preprocessed")

	// ErrUnknownExtractor is returned when a registry lookup fails.
	ErrUnknownExtractor = errors.New("unknown feature extractor")
)

// Extractor computes one kind of feature for the blobs of an index.
type Extractor interface {
	// Preprocess runs the extractor over every blob of idx. It must be
	// called exactly once.
	Preprocess(idx blob.Index) error

	// Extract returns the features computed for b during preprocessing.
	Extract(b *blob.Blob) ([]blob.Feature, error)

	// Describe returns the extractor's registry description.
	Describe() Description
}

// Description identifies an extractor for orchestration and display.
type Description struct {
	Name     string
	Category string
	Text     string
}

// Geometry holds the spatial tolerances shared by the geometric extractors
// and the merge segmentor.
type Geometry struct {
	// HorizontalReach is the largest horizontal gap between neighbours, in
	// blob heights (default: 1.0)
	HorizontalReach float64

	// VerticalReach is the largest vertical gap between stacked neighbours,
	// in the larger of blob width and height (default: 1.0)
	VerticalReach float64

	// BaselineTolerance is the largest baseline or centre line offset of
	// aligned neighbours, as a fraction of the taller height (default: 0.25)
	BaselineTolerance float64

	// ScriptRatio is the largest height of a script relative to its base
	// (default: 0.75)
	ScriptRatio float64

	// BarAspect is the smallest width/height ratio of an unrecognized blob
	// treated as a fraction bar (default: 4.0)
	BarAspect float64
}

// DefaultGeometry returns the default spatial tolerances.
func DefaultGeometry() Geometry {
	return Geometry{
		HorizontalReach:   1.0,
		VerticalReach:     1.0,
		BaselineTolerance: 0.25,
		ScriptRatio:       0.75,
		BarAspect:         4.0,
	}
}

// Config holds configuration shared by all extractors.
type Config struct {
	// CertaintyThreshold is the OCR certainty above which a recognized word
	// is trusted as text. Characters are trusted above half of it.
	CertaintyThreshold float64

	Geometry Geometry

	// FeatureDir receives debug artifacts, one subdirectory per extractor
	FeatureDir string

	// Debug enables debug artifacts. Image and ImageName must be set for
	// images to be written.
	Debug     bool
	Image     image.Image
	ImageName string

	// Logger receives diagnostics; nil discards them
	Logger *slog.Logger
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		CertaintyThreshold: -6,
		Geometry:           DefaultGeometry(),
		FeatureDir:         "./features",
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ExpNormalize maps a non-negative count onto [0, 1).
func ExpNormalize(x float64) float64 {
	return 1 - math.Exp(-x)
}

func boolFeature(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// slots tracks the slot key an extractor claimed on an index.
type slots struct {
	name  string
	idx   blob.Index
	key   blob.SlotKey
	ready bool
}

// claim reserves the next open slot key of idx.
func (s *slots) claim(idx blob.Index) error {
	if s.idx != nil {
		return fmt.Errorf("%s: %w", s.name, ErrAlreadyPreprocessed)
	}
	s.idx = idx
	s.key = blob.NextSlotKey(idx)
	return nil
}

func (s *slots) put(b *blob.Blob, d blob.Data) error {
	if err := b.AppendData(s.key, d); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

// get returns the data of b stored by the extractor.
func get[T blob.Data](s *slots, b *blob.Blob) (T, error) {
	if !s.ready {
		var zero T
		return zero, fmt.Errorf("%s: %w", s.name, ErrNotPreprocessed)
	}
	v, err := blob.Slot[T](b, s.key)
	if err != nil {
		return v, fmt.Errorf("%s: %w", s.name, err)
	}
	return v, nil
}
