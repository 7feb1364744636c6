// Package blob defines the connected-component regions ("blobs") analyzed by
// the math detector, together with their per-feature data slots and the
// merge groups they are assigned to.
//
// # Blobs
//
// A [Blob] carries its bounding box in document coordinates, the recognition
// certainty reported by the OCR engine for the word and character it belongs
// to, and an ordered list of feature slots. Certainties use the Tesseract
// scale: values lie in [MinCertainty, MaxCertainty] and larger is more
// certain. A blob nobody recognized has MinCertainty for both values.
//
// # Feature slots
//
// Each feature extractor appends exactly one [Data] value to every blob of
// an index during its preprocessing pass. Because all blobs of an index see
// the same sequence of appends, the slot key assigned to an extractor is the
// same for every blob, and lookups are O(1):
//
//	key := blob.NextSlotKey(idx)
//	for b := range idx.All() {
//	    if err := b.AppendData(key, &blob.NestedData{}); err != nil {
//	        return err
//	    }
//	}
//
// # Groups
//
// A [Group] is a merge segment. Blobs join groups monotonically: once in a
// group, a blob only moves when its whole group is absorbed by another.
package blob

import (
	"fmt"

	"github.com/tsawler/mathfind/model"
)

// Certainty scale bounds, matching Tesseract's classifier certainty.
const (
	MinCertainty = -20.0
	MaxCertainty = 0.0
)

// ID identifies a blob within one index.
type ID uint32

// Blob is a connected-component region of a document image.
type Blob struct {
	// ID is assigned by the index on insertion
	ID ID

	// BBox is the bounding box in document coordinates
	BBox model.BBox

	// WordConfidence is the certainty of the word containing this blob
	WordConfidence float64

	// CharConfidence is the certainty of the character this blob belongs to
	CharConfidence float64

	// InWord reports whether the blob belongs to a recognized word
	InWord bool

	// Text is the recognized character text, if any
	Text string

	group *Group
	slots []Data
}

// New creates an unrecognized blob with the given bounding box.
func New(box model.BBox) *Blob {
	return &Blob{
		BBox:           box,
		WordConfidence: MinCertainty,
		CharConfidence: MinCertainty,
	}
}

// Group returns the merge group the blob belongs to, or nil.
func (b *Blob) Group() *Group {
	return b.group
}

// SegmentID returns the identity of the blob's segment, if it has one.
func (b *Blob) SegmentID() (SegmentID, bool) {
	if b.group == nil {
		return 0, false
	}
	return b.group.ID, true
}

// SameParent returns every blob sharing this blob's segment, including the
// blob itself. An ungrouped blob is its own only member.
func (b *Blob) SameParent() []*Blob {
	if b.group == nil {
		return []*Blob{b}
	}
	out := make([]*Blob, len(b.group.Members))
	copy(out, b.group.Members)
	return out
}

// IsConfidentText reports whether the OCR engine recognized the blob as
// ordinary text with enough certainty to exclude it from math analysis.
// The word rule uses threshold directly; the character rule uses half of it.
func (b *Blob) IsConfidentText(threshold float64) bool {
	return (b.InWord && b.WordConfidence > threshold) ||
		b.CharConfidence > threshold/2
}

// String implements fmt.Stringer.
func (b *Blob) String() string {
	return fmt.Sprintf("blob#%d[%.0f,%.0f %.0fx%.0f]",
		b.ID, b.BBox.X, b.BBox.Y, b.BBox.Width, b.BBox.Height)
}

// CertaintyFromPercent converts a 0-100 OCR confidence into the certainty
// scale used by blobs.
func CertaintyFromPercent(conf float64) float64 {
	if conf < 0 {
		return MinCertainty
	}
	c := (conf - 100) / 5
	if c < MinCertainty {
		return MinCertainty
	}
	if c > MaxCertainty {
		return MaxCertainty
	}
	return c
}
