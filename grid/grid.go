// Package grid provides the spatial index holding every blob of one
// document image.
//
// The index is a uniform grid of square cells laid over the page. Each cell
// keeps a roaring bitmap of the IDs of blobs whose boxes overlap it, so a
// rectangle query is the union of the covered cells' bitmaps followed by an
// exact intersection test. Results come back in ascending blob ID order,
// which is also insertion order, so both enumerations are stable.
//
//	g := grid.Build(pageBox, blobs)
//	for b := range g.Search(region) {
//	    ...
//	}
package grid

import (
	"iter"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/model"
)

// Config holds grid construction options.
type Config struct {
	// CellSize is the side of one grid cell. Zero selects a size from the
	// blobs being indexed (see Build).
	CellSize float64

	// MinCellSize bounds automatic cell sizes from below (default: 8)
	MinCellSize float64
}

// DefaultConfig returns the automatic sizing configuration.
func DefaultConfig() Config {
	return Config{
		CellSize:    0,
		MinCellSize: 8,
	}
}

// Grid is a uniform-grid spatial index of blobs.
type Grid struct {
	bounds   model.BBox
	cellSize float64
	cols     int
	rows     int
	cells    []*roaring.Bitmap
	blobs    []*blob.Blob
}

// New creates an empty grid covering bounds with square cells of the given
// size. Blobs outside bounds are still indexed; they land in edge cells.
func New(bounds model.BBox, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultConfig().MinCellSize
	}
	cols := int(math.Ceil(bounds.Width / cellSize))
	rows := int(math.Ceil(bounds.Height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{
		bounds:   bounds,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]*roaring.Bitmap, cols*rows),
	}
}

// Build creates a grid over bounds and inserts blobs in order using the
// default configuration.
func Build(bounds model.BBox, blobs []*blob.Blob) *Grid {
	return BuildWithConfig(bounds, blobs, DefaultConfig())
}

// BuildWithConfig creates a grid over bounds and inserts blobs in order.
// With an automatic cell size, cells are twice the median blob height.
func BuildWithConfig(bounds model.BBox, blobs []*blob.Blob, config Config) *Grid {
	size := config.CellSize
	if size <= 0 {
		size = 2 * medianHeight(blobs)
		if size < config.MinCellSize {
			size = config.MinCellSize
		}
	}
	g := New(bounds, size)
	for _, b := range blobs {
		g.Insert(b)
	}
	return g
}

// Insert adds b to the index and assigns its ID.
func (g *Grid) Insert(b *blob.Blob) blob.ID {
	g.blobs = append(g.blobs, b)
	b.ID = blob.ID(len(g.blobs))

	c0, r0, c1, r1 := g.cellRange(b.BBox)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			i := r*g.cols + c
			if g.cells[i] == nil {
				g.cells[i] = roaring.New()
			}
			g.cells[i].Add(uint32(b.ID))
		}
	}
	return b.ID
}

// Len returns the number of indexed blobs.
func (g *Grid) Len() int {
	return len(g.blobs)
}

// Bounds returns the area the grid was laid over.
func (g *Grid) Bounds() model.BBox {
	return g.bounds
}

// CellSize returns the side of one grid cell.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// All enumerates every blob in insertion order.
func (g *Grid) All() iter.Seq[*blob.Blob] {
	return func(yield func(*blob.Blob) bool) {
		for _, b := range g.blobs {
			if !yield(b) {
				return
			}
		}
	}
}

// Search enumerates, in ascending ID order, the blobs whose bounding boxes
// intersect box. Each blob is returned at most once.
func (g *Grid) Search(box model.BBox) iter.Seq[*blob.Blob] {
	return func(yield func(*blob.Blob) bool) {
		if len(g.blobs) == 0 {
			return
		}
		ids := roaring.New()
		c0, r0, c1, r1 := g.cellRange(box)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				if cell := g.cells[r*g.cols+c]; cell != nil {
					ids.Or(cell)
				}
			}
		}
		it := ids.Iterator()
		for it.HasNext() {
			b := g.blobs[it.Next()-1]
			if !b.BBox.Intersects(box) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}

// cellRange returns the inclusive column and row span covered by box,
// clamped to the grid.
func (g *Grid) cellRange(box model.BBox) (c0, r0, c1, r1 int) {
	c0 = g.clampCol(box.Left())
	c1 = g.clampCol(box.Right())
	r0 = g.clampRow(box.Bottom())
	r1 = g.clampRow(box.Top())
	if c1 < c0 {
		c0, c1 = c1, c0
	}
	if r1 < r0 {
		r0, r1 = r1, r0
	}
	return c0, r0, c1, r1
}

func (g *Grid) clampCol(x float64) int {
	return clamp(int(math.Floor((x-g.bounds.Left())/g.cellSize)), g.cols-1)
}

func (g *Grid) clampRow(y float64) int {
	return clamp(int(math.Floor((y-g.bounds.Bottom())/g.cellSize)), g.rows-1)
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// medianHeight returns the median bounding box height of blobs, or 0.
func medianHeight(blobs []*blob.Blob) float64 {
	if len(blobs) == 0 {
		return 0
	}
	heights := make([]float64, len(blobs))
	for i, b := range blobs {
		heights[i] = b.BBox.Height
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}
