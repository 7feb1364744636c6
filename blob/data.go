package blob

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotOccupied is returned when feature data is appended at a key
	// that already holds data for the blob.
	ErrSlotOccupied = errors.New("feature slot already occupied")

	// ErrSlotMissing is returned when reading a slot that was never filled.
	ErrSlotMissing = errors.New("feature slot missing")

	// ErrSlotType is returned when a slot holds a different data variant
	// than the one requested.
	ErrSlotType = errors.New("feature slot holds unexpected data type")
)

// SlotKey indexes a blob's feature slots. One key is assigned per
// extractor instance and is identical for every blob of an index.
type SlotKey int

// Feature is one scalar feature value tagged with the extractor that
// produced it.
type Feature struct {
	Extractor string
	Value     float64
}

// Data is the closed set of per-blob feature data variants.
type Data interface {
	// Features returns the scalar features extracted for the blob.
	Features() []Feature
	data()
}

// NestedData holds the number of blobs completely nested inside a blob.
type NestedData struct {
	Count     int
	Extracted []Feature
}

func (d *NestedData) Features() []Feature { return d.Extracted }
func (*NestedData) data()                 {}

// AlignedData holds the lengths of the horizontally aligned neighbour chains
// on each side of a blob.
type AlignedData struct {
	Left      int
	Right     int
	Extracted []Feature
}

func (d *AlignedData) Features() []Feature { return d.Extracted }
func (*AlignedData) data()                 {}

// StackedData describes vertically stacked neighbours and script positions.
type StackedData struct {
	Above       int
	Below       int
	Superscript bool
	Subscript   bool
	Extracted   []Feature
}

func (d *StackedData) Features() []Feature { return d.Extracted }
func (*StackedData) data()                 {}

// RecognitionData holds operator classification derived from recognition
// results and glyph shape.
type RecognitionData struct {
	// Symbol is the normalized recognized text
	Symbol string

	// Operator reports a connector glyph such as "+", "=" or a fraction bar
	Operator bool

	// Bar reports a flat horizontal operator (fraction bar, overline, minus)
	Bar bool

	Extracted []Feature
}

func (d *RecognitionData) Features() []Feature { return d.Extracted }
func (*RecognitionData) data()                 {}

// NumSlots returns the number of filled feature slots.
func (b *Blob) NumSlots() int {
	return len(b.slots)
}

// AppendData stores d in the slot at key. Slots are filled in order, so key
// must equal the current slot count; a lower key is already occupied.
func (b *Blob) AppendData(key SlotKey, d Data) error {
	switch n := SlotKey(len(b.slots)); {
	case key < n:
		return fmt.Errorf("%v key %d: %w", b, key, ErrSlotOccupied)
	case key > n:
		return fmt.Errorf("%v key %d (have %d): %w", b, key, n, ErrSlotMissing)
	}
	b.slots = append(b.slots, d)
	return nil
}

// DataAt returns the data stored at key.
func (b *Blob) DataAt(key SlotKey) (Data, error) {
	if key < 0 || int(key) >= len(b.slots) {
		return nil, fmt.Errorf("%v key %d: %w", b, key, ErrSlotMissing)
	}
	return b.slots[key], nil
}

// Slot returns the data at key as the variant T.
func Slot[T Data](b *Blob, key SlotKey) (T, error) {
	var zero T
	d, err := b.DataAt(key)
	if err != nil {
		return zero, err
	}
	v, ok := d.(T)
	if !ok {
		return zero, fmt.Errorf("%v key %d holds %T: %w", b, key, d, ErrSlotType)
	}
	return v, nil
}

// NextSlotKey returns the first slot key that is open on every blob of idx.
func NextSlotKey(idx Index) SlotKey {
	var key SlotKey
	for b := range idx.All() {
		if n := SlotKey(len(b.slots)); n > key {
			key = n
		}
	}
	return key
}
