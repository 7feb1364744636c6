package feature

import (
	"github.com/tsawler/mathfind/blob"
)

// StackedName is the registry name of the vertically stacked blob extractor.
const StackedName = "stacked"

func init() {
	Register(Registration{
		Name:        StackedName,
		Category:    CategoryGeometry,
		Description: "Blobs stacked above and below a blob, and its superscript and subscript neighbours",
		New:         func(config Config) Extractor { return NewStacked(config) },
	})
}

// Stacked counts the blobs stacked directly above and below each blob, and
// flags blobs followed by a superscript or subscript.
type Stacked struct {
	config Config
	slots  slots
}

// NewStacked creates a stacked-blob extractor.
func NewStacked(config Config) *Stacked {
	return &Stacked{
		config: config,
		slots:  slots{name: StackedName},
	}
}

// Describe implements Extractor.
func (s *Stacked) Describe() Description {
	return describe(StackedName)
}

// Preprocess implements Extractor.
func (s *Stacked) Preprocess(idx blob.Index) error {
	if err := s.slots.claim(idx); err != nil {
		return err
	}
	g := s.config.Geometry
	for b := range idx.All() {
		data := &blob.StackedData{
			Above:       countStacked(idx, b, blob.Up, g),
			Below:       countStacked(idx, b, blob.Down, g),
			Superscript: hasScript(idx, b, blob.SuperScript, g),
			Subscript:   hasScript(idx, b, blob.SubScript, g),
		}
		data.Extracted = []blob.Feature{
			{Extractor: StackedName, Value: ExpNormalize(float64(data.Above))},
			{Extractor: StackedName, Value: ExpNormalize(float64(data.Below))},
			{Extractor: StackedName, Value: boolFeature(data.Superscript)},
			{Extractor: StackedName, Value: boolFeature(data.Subscript)},
		}
		if err := s.slots.put(b, data); err != nil {
			return err
		}
	}
	s.slots.ready = true
	s.config.logger().Debug("stacked blobs measured", "blobs", idx.Len(), "slot", s.slots.key)
	return nil
}

// Extract implements Extractor.
func (s *Stacked) Extract(b *blob.Blob) ([]blob.Feature, error) {
	data, err := get[*blob.StackedData](&s.slots, b)
	if err != nil {
		return nil, err
	}
	return data.Features(), nil
}

// Data returns the stacked data of b.
func (s *Stacked) Data(b *blob.Blob) (*blob.StackedData, error) {
	return get[*blob.StackedData](&s.slots, b)
}

// countStacked counts the blobs within vertical reach of b in direction d
// (Up or Down) that are stacked on it.
func countStacked(idx blob.Index, b *blob.Blob, d blob.Direction, g Geometry) int {
	n := 0
	for c := range idx.Search(blob.SearchArea(b.BBox, d, g.VerticalReach)) {
		if c == b || c.BBox == b.BBox {
			continue
		}
		if blob.Beyond(b.BBox, c.BBox, d) && IsStacked(b, c) {
			n++
		}
	}
	return n
}

// hasScript reports whether some blob to the right of b is its superscript
// (d == SuperScript) or subscript (d == SubScript).
func hasScript(idx blob.Index, b *blob.Blob, d blob.Direction, g Geometry) bool {
	for c := range idx.Search(blob.SearchArea(b.BBox, d, g.HorizontalReach)) {
		if c == b || c.BBox == b.BBox {
			continue
		}
		if IsScript(b, c, d, g) {
			return true
		}
	}
	return false
}

// IsStacked reports whether a and b share a column: the horizontal centre of
// one lies within the horizontal extent of the other.
func IsStacked(a, b *blob.Blob) bool {
	ac, bc := a.BBox.Center().X, b.BBox.Center().X
	return (ac >= b.BBox.Left() && ac <= b.BBox.Right()) ||
		(bc >= a.BBox.Left() && bc <= a.BBox.Right())
}

// IsScript reports whether c is a script of base in direction d. A script
// lies to the right of its base, is at most ScriptRatio of its height, and
// for a superscript starts in the upper half of the base (for a subscript,
// ends in the lower half) while still overlapping it vertically.
func IsScript(base, c *blob.Blob, d blob.Direction, g Geometry) bool {
	if d != blob.SuperScript && d != blob.SubScript {
		return false
	}
	bb, cb := base.BBox, c.BBox
	if !blob.Beyond(bb, cb, d) || cb.Height > g.ScriptRatio*bb.Height {
		return false
	}
	if blob.Gap(bb, cb, d) > g.HorizontalReach*bb.Height {
		return false
	}
	mid := bb.Center().Y
	if d == blob.SuperScript {
		return cb.Bottom() >= mid && cb.Bottom() <= bb.Top()
	}
	return cb.Top() <= mid && cb.Top() >= bb.Bottom()
}
