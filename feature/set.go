package feature

import (
	"fmt"

	"github.com/tsawler/mathfind/blob"
)

// Set binds extractors to one blob index. Each extractor is created from the
// registry and preprocessed on first use, so every extractor runs exactly
// once per index no matter how many consumers ask for it.
//
// A Set is not safe for concurrent use; it shares the single-writer
// discipline of the index it is bound to.
type Set struct {
	index      blob.Index
	config     Config
	extractors map[string]Extractor
	order      []string
}

// NewSet creates an empty set bound to idx.
func NewSet(idx blob.Index, config Config) *Set {
	return &Set{
		index:      idx,
		config:     config,
		extractors: make(map[string]Extractor),
	}
}

// Index returns the index the set is bound to.
func (s *Set) Index() blob.Index {
	return s.index
}

// Config returns the extractor configuration of the set.
func (s *Set) Config() Config {
	return s.config
}

// Use preprocesses the named extractors, in order, if they have not run yet.
func (s *Set) Use(names ...string) error {
	for _, name := range names {
		if _, err := s.Extractor(name); err != nil {
			return err
		}
	}
	return nil
}

// Extractor returns the named extractor, creating and preprocessing it on
// first use.
func (s *Set) Extractor(name string) (Extractor, error) {
	if e, ok := s.extractors[name]; ok {
		return e, nil
	}
	r, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	e := r.New(s.config)
	if err := e.Preprocess(s.index); err != nil {
		return nil, fmt.Errorf("failed to preprocess %s: %w", name, err)
	}
	s.extractors[name] = e
	s.order = append(s.order, name)
	return e, nil
}

// Nested returns the nested-blob extractor.
func (s *Set) Nested() (*Nested, error) {
	return extractorAs[*Nested](s, NestedName)
}

// Aligned returns the aligned-blob extractor.
func (s *Set) Aligned() (*Aligned, error) {
	return extractorAs[*Aligned](s, AlignedName)
}

// Stacked returns the stacked-blob extractor.
func (s *Set) Stacked() (*Stacked, error) {
	return extractorAs[*Stacked](s, StackedName)
}

// Recognition returns the operator classifier.
func (s *Set) Recognition() (*Recognition, error) {
	return extractorAs[*Recognition](s, RecognitionName)
}

// Features returns the features of b from every extractor in the set, in
// the order the extractors were first used.
func (s *Set) Features(b *blob.Blob) ([]blob.Feature, error) {
	var out []blob.Feature
	for _, name := range s.order {
		f, err := s.extractors[name].Extract(b)
		if err != nil {
			return nil, err
		}
		out = append(out, f...)
	}
	return out, nil
}

// Describe returns the descriptions of the extractors in use.
func (s *Set) Describe() []Description {
	out := make([]Description, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.extractors[name].Describe())
	}
	return out
}

func extractorAs[T Extractor](s *Set, name string) (T, error) {
	var zero T
	e, err := s.Extractor(name)
	if err != nil {
		return zero, err
	}
	v, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("extractor %s has type %T", name, e)
	}
	return v, nil
}
