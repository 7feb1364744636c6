// Package segment groups blobs into candidate math-expression segments.
//
// [HeuristicMerge] grows segments greedily from seed blobs. For each blob it
// picks merge directions from the auxiliary geometric and recognition
// features, searches the index in those directions for the nearest eligible
// neighbour, and continues from every blob it merges, up to a configurable
// number of hops from the seed. [Assemble] turns the resulting segments into
// regions.
package segment

import (
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/feature"
)

// Config holds configuration for segmentation and region assembly.
type Config struct {
	// CertaintyThreshold is the OCR certainty above which a blob is treated
	// as ordinary text and never merged (default: -6)
	CertaintyThreshold float64

	// MergeRecursions is the largest number of hops from a seed blob to any
	// blob merged into its segment (default: 8)
	MergeRecursions int

	// MinRegionMembers is the smallest segment reported as a region
	// (default: 2)
	MinRegionMembers int

	Geometry feature.Geometry

	// Logger receives diagnostics; nil discards them
	Logger *slog.Logger
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		CertaintyThreshold: -6,
		MergeRecursions:    8,
		MinRegionMembers:   2,
		Geometry:           feature.DefaultGeometry(),
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Stats summarizes one segmentation run.
type Stats struct {
	// Seeds is the number of blobs that started a merge decision
	Seeds int

	// Merges is the number of blobs added to a segment other than their own
	Merges int

	// Singletons is the number of seeds that found no neighbour
	Singletons int

	// Truncated is the number of merged blobs left unexpanded at the
	// recursion bound
	Truncated int
}

// HeuristicMerge is the greedy merge segmentor.
type HeuristicMerge struct {
	config Config
}

// NewHeuristicMerge creates a segmentor with default configuration.
func NewHeuristicMerge() *HeuristicMerge {
	return NewHeuristicMergeWithConfig(DefaultConfig())
}

// NewHeuristicMergeWithConfig creates a segmentor with custom configuration.
func NewHeuristicMergeWithConfig(config Config) *HeuristicMerge {
	if config.MergeRecursions < 0 {
		config.MergeRecursions = 0
	}
	return &HeuristicMerge{config: config}
}

// Config returns the segmentor configuration.
func (h *HeuristicMerge) Config() Config {
	return h.config
}

// Run segments idx in place, computing the auxiliary features it needs.
// Running it again on the same index merges nothing further.
func (h *HeuristicMerge) Run(idx blob.Index) (Stats, error) {
	fc := feature.DefaultConfig()
	fc.CertaintyThreshold = h.config.CertaintyThreshold
	fc.Geometry = h.config.Geometry
	fc.Logger = h.config.Logger
	return h.RunWithFeatures(feature.NewSet(idx, fc))
}

// RunWithFeatures segments the index bound to set, reusing any auxiliary
// extractors the set has already preprocessed.
func (h *HeuristicMerge) RunWithFeatures(set *feature.Set) (Stats, error) {
	aligned, err := set.Aligned()
	if err != nil {
		return Stats{}, err
	}
	stacked, err := set.Stacked()
	if err != nil {
		return Stats{}, err
	}
	recognition, err := set.Recognition()
	if err != nil {
		return Stats{}, err
	}

	idx := set.Index()
	r := &run{
		config:      h.config,
		idx:         idx,
		groups:      blob.NewGroups(idx),
		aligned:     aligned,
		stacked:     stacked,
		recognition: recognition,
		log:         h.config.logger(),
	}
	for b := range idx.All() {
		if b.Group() != nil || b.IsConfidentText(h.config.CertaintyThreshold) {
			continue
		}
		if err := r.decideAndMerge(b); err != nil {
			return r.stats, err
		}
	}

	r.log.Debug("segmentation completed",
		"blobs", idx.Len(),
		"seeds", r.stats.Seeds,
		"merges", r.stats.Merges,
		"singletons", r.stats.Singletons,
		"truncated", r.stats.Truncated,
	)
	return r.stats, nil
}

// SameParent returns every blob sharing b's segment, b included.
func SameParent(b *blob.Blob) []*blob.Blob {
	return b.SameParent()
}

// run is the state of one segmentation pass.
type run struct {
	config      Config
	idx         blob.Index
	groups      *blob.Groups
	aligned     *feature.Aligned
	stacked     *feature.Stacked
	recognition *feature.Recognition
	log         *slog.Logger
	stats       Stats
}

type frontier struct {
	b     *blob.Blob
	depth int
}

// decideAndMerge grows a segment from seed breadth-first. Blobs merged at
// the recursion bound join the segment but are not expanded.
func (r *run) decideAndMerge(seed *blob.Blob) error {
	r.stats.Seeds++
	g := r.groups.Start(seed)

	visited := roaring.New()
	visited.Add(uint32(seed.ID))
	queue := []frontier{{b: seed}}

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if e.depth >= r.config.MergeRecursions {
			r.stats.Truncated++
			r.log.Debug("merge recursion bound reached", "blob", e.b.ID, "segment", g.ID, "depth", e.depth)
			continue
		}

		found, err := r.neighbors(e.b, g)
		if err != nil {
			return err
		}
		for _, n := range found {
			if n.Group() == g || visited.Contains(uint32(n.ID)) {
				continue
			}
			r.groups.Join(g, n)
			r.stats.Merges++
			visited.Add(uint32(n.ID))
			queue = append(queue, frontier{b: n, depth: e.depth + 1})
		}
	}

	if g.Len() == 1 {
		r.stats.Singletons++
	}
	return nil
}

// neighbors returns the blobs b merges with: every eligible blob its box
// intersects, in ID order, then the nearest eligible blob in each of its
// merge directions, in direction priority order.
func (r *run) neighbors(b *blob.Blob, g *blob.Group) ([]*blob.Blob, error) {
	var out []*blob.Blob
	for c := range r.idx.Search(b.BBox) {
		if r.eligible(b, c, g) && c.Group() != g {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	dirs, err := r.directions(b)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if n := r.search(b, d, g); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// directions returns the directions worth searching from b, in priority
// order.
func (r *run) directions(b *blob.Blob) ([]blob.Direction, error) {
	al, err := r.aligned.Data(b)
	if err != nil {
		return nil, err
	}
	st, err := r.stacked.Data(b)
	if err != nil {
		return nil, err
	}
	rec, err := r.recognition.Data(b)
	if err != nil {
		return nil, err
	}

	var dirs []blob.Direction
	for _, d := range blob.Directions {
		var ok bool
		switch d {
		case blob.Right:
			ok = al.Right > 0 || rec.Operator
		case blob.Left:
			ok = al.Left > 0 || rec.Operator
		case blob.SuperScript:
			ok = st.Superscript
		case blob.SubScript:
			ok = st.Subscript
		case blob.Up:
			ok = st.Above > 0 || rec.Bar
		case blob.Down:
			ok = st.Below > 0 || rec.Bar
		}
		if ok {
			dirs = append(dirs, d)
		}
	}
	return dirs, nil
}

// search returns the nearest eligible blob on the d side of b within reach,
// ties broken by lowest ID, or nil.
func (r *run) search(b *blob.Blob, d blob.Direction, g *blob.Group) *blob.Blob {
	geo := r.config.Geometry
	reach := geo.HorizontalReach
	if !d.IsHorizontal() {
		reach = geo.VerticalReach
	}

	var best *blob.Blob
	bestGap := math.Inf(1)
	for c := range r.idx.Search(blob.SearchArea(b.BBox, d, reach)) {
		if !r.eligible(b, c, g) || !blob.Beyond(b.BBox, c.BBox, d) {
			continue
		}
		if (d == blob.SuperScript || d == blob.SubScript) && !feature.IsScript(b, c, d, geo) {
			continue
		}
		gap := blob.Gap(b.BBox, c.BBox, d)
		if gap < bestGap || (gap == bestGap && c.ID < best.ID) {
			best, bestGap = c, gap
		}
	}
	return best
}

// eligible reports whether c may merge into g from b. Self, identical
// geometry and confident text never merge, nor do members of other grown
// segments.
func (r *run) eligible(b, c *blob.Blob, g *blob.Group) bool {
	if c == b || c.BBox == b.BBox || c.IsConfidentText(r.config.CertaintyThreshold) {
		return false
	}
	return !alreadyMerged(c, g)
}

// alreadyMerged reports whether c belongs to a segment other than g that
// has grown beyond c itself. Singleton segments are absorbed.
func alreadyMerged(c *blob.Blob, g *blob.Group) bool {
	other := c.Group()
	return other != nil && other != g && other.Len() > 1
}
