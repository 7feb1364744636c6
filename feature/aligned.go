package feature

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tsawler/mathfind/blob"
)

// AlignedName is the registry name of the aligned-blob extractor.
const AlignedName = "aligned"

func init() {
	Register(Registration{
		Name:        AlignedName,
		Category:    CategoryGeometry,
		Description: "Lengths of the chains of horizontally aligned blobs left and right of a blob",
		New:         func(config Config) Extractor { return NewAligned(config) },
	})
}

// Aligned measures, for every blob, how many blobs continue its row to the
// left and to the right. Neighbours are aligned when their baselines or
// centre lines agree within the baseline tolerance.
type Aligned struct {
	config Config
	slots  slots
}

// NewAligned creates an aligned-blob extractor.
func NewAligned(config Config) *Aligned {
	return &Aligned{
		config: config,
		slots:  slots{name: AlignedName},
	}
}

// Describe implements Extractor.
func (a *Aligned) Describe() Description {
	return describe(AlignedName)
}

// Preprocess implements Extractor.
func (a *Aligned) Preprocess(idx blob.Index) error {
	if err := a.slots.claim(idx); err != nil {
		return err
	}
	for b := range idx.All() {
		left := a.chain(idx, b, blob.Left)
		right := a.chain(idx, b, blob.Right)
		data := &blob.AlignedData{
			Left:  left,
			Right: right,
			Extracted: []blob.Feature{
				{Extractor: AlignedName, Value: ExpNormalize(float64(left))},
				{Extractor: AlignedName, Value: ExpNormalize(float64(right))},
			},
		}
		if err := a.slots.put(b, data); err != nil {
			return err
		}
	}
	a.slots.ready = true
	a.config.logger().Debug("aligned blobs measured", "blobs", idx.Len(), "slot", a.slots.key)
	return nil
}

// Extract implements Extractor.
func (a *Aligned) Extract(b *blob.Blob) ([]blob.Feature, error) {
	data, err := get[*blob.AlignedData](&a.slots, b)
	if err != nil {
		return nil, err
	}
	return data.Features(), nil
}

// Data returns the aligned data of b.
func (a *Aligned) Data(b *blob.Blob) (*blob.AlignedData, error) {
	return get[*blob.AlignedData](&a.slots, b)
}

// chain follows nearest aligned neighbours from b in direction d and returns
// the number of hops.
func (a *Aligned) chain(idx blob.Index, b *blob.Blob, d blob.Direction) int {
	visited := roaring.New()
	visited.Add(uint32(b.ID))

	n := 0
	for cur := b; ; n++ {
		next := a.neighbor(idx, cur, d)
		if next == nil || visited.Contains(uint32(next.ID)) {
			return n
		}
		visited.Add(uint32(next.ID))
		cur = next
	}
}

// neighbor returns the nearest blob aligned with b in direction d, ties
// broken by lowest ID.
func (a *Aligned) neighbor(idx blob.Index, b *blob.Blob, d blob.Direction) *blob.Blob {
	var best *blob.Blob
	bestGap := math.Inf(1)
	for c := range idx.Search(blob.SearchArea(b.BBox, d, a.config.Geometry.HorizontalReach)) {
		if c == b || c.BBox == b.BBox || !blob.Beyond(b.BBox, c.BBox, d) {
			continue
		}
		if !IsAligned(b, c, a.config.Geometry) {
			continue
		}
		gap := blob.Gap(b.BBox, c.BBox, d)
		if gap < bestGap || (gap == bestGap && c.ID < best.ID) {
			best, bestGap = c, gap
		}
	}
	return best
}

// IsAligned reports whether a and b sit on the same text row: their bottoms
// or their vertical centres differ by at most the baseline tolerance times
// the taller height.
func IsAligned(a, b *blob.Blob, g Geometry) bool {
	tol := g.BaselineTolerance * math.Max(a.BBox.Height, b.BBox.Height)
	if math.Abs(a.BBox.Bottom()-b.BBox.Bottom()) <= tol {
		return true
	}
	return math.Abs(a.BBox.Center().Y-b.BBox.Center().Y) <= tol
}
