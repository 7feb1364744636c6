package blob

import (
	"iter"

	"github.com/tsawler/mathfind/model"
)

// Index is the read side of a spatial blob index, as consumed by feature
// extractors and the segmentor.
type Index interface {
	// All enumerates every blob in a stable order. The sequence is finite
	// and may be ranged over any number of times.
	All() iter.Seq[*Blob]

	// Search enumerates the blobs whose bounding boxes intersect box.
	Search(box model.BBox) iter.Seq[*Blob]

	// Len returns the number of blobs.
	Len() int
}
