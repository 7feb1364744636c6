package segment

import (
	"iter"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/feature"
	"github.com/tsawler/mathfind/grid"
	"github.com/tsawler/mathfind/model"
)

func box(x, y, w, h float64) *blob.Blob {
	return blob.New(model.NewBBox(x, y, w, h))
}

func confident(b *blob.Blob) *blob.Blob {
	b.InWord = true
	b.WordConfidence = -1
	b.CharConfidence = -1
	return b
}

func build(blobs ...*blob.Blob) *grid.Grid {
	return grid.Build(model.NewBBox(0, 0, 500, 500), blobs)
}

func segmentOf(t *testing.T, b *blob.Blob) blob.SegmentID {
	t.Helper()
	id, ok := b.SegmentID()
	require.True(t, ok, "%v has no segment", b)
	return id
}

func assignments(idx blob.Index) map[blob.ID]blob.SegmentID {
	out := make(map[blob.ID]blob.SegmentID)
	for b := range idx.All() {
		if id, ok := b.SegmentID(); ok {
			out[b.ID] = id
		}
	}
	return out
}

func TestAdjacentPairMergesDistantBlobStaysAlone(t *testing.T) {
	a := box(0, 0, 8, 10)
	b := box(10, 0, 8, 10)
	c := box(300, 300, 8, 10)
	idx := build(a, b, c)

	stats, err := NewHeuristicMerge().Run(idx)
	require.NoError(t, err)

	assert.Equal(t, segmentOf(t, a), segmentOf(t, b))
	assert.NotEqual(t, segmentOf(t, a), segmentOf(t, c))
	assert.Equal(t, []*blob.Blob{c}, SameParent(c))
	assert.Equal(t, []*blob.Blob{a, b}, SameParent(b))

	assert.Equal(t, 2, stats.Seeds)
	assert.Equal(t, 1, stats.Merges)
	assert.Equal(t, 1, stats.Singletons)
}

func TestFractionMergesVertically(t *testing.T) {
	bar := box(0, 20, 40, 2)
	numerator := box(15, 25, 10, 10)
	denominator := box(15, 7, 10, 10)
	idx := build(bar, numerator, denominator)

	_, err := NewHeuristicMerge().Run(idx)
	require.NoError(t, err)

	assert.Len(t, SameParent(bar), 3)
	assert.Equal(t, model.NewBBox(0, 7, 40, 28), bar.Group().Box)
}

func TestScriptAbsorbsSingleton(t *testing.T) {
	sup := box(11, 6, 5, 5)
	base := box(0, 0, 10, 10)
	idx := build(sup, base)

	stats, err := NewHeuristicMerge().Run(idx)
	require.NoError(t, err)

	assert.Equal(t, segmentOf(t, base), segmentOf(t, sup))
	assert.Equal(t, base.Group().ID, segmentOf(t, sup))
	assert.Equal(t, 2, stats.Seeds)
	assert.Equal(t, 1, stats.Singletons)
}

func TestIntersectingBlobsMerge(t *testing.T) {
	stem := box(0, 0, 3, 10)
	dot := box(0, 9, 3, 3)
	idx := build(stem, dot)

	_, err := NewHeuristicMerge().Run(idx)
	require.NoError(t, err)

	assert.Equal(t, segmentOf(t, stem), segmentOf(t, dot))
}

func TestConfidentTextIsNeverMerged(t *testing.T) {
	symbol := box(0, 0, 8, 10)
	word := confident(box(10, 0, 8, 10))
	idx := build(symbol, word)

	stats, err := NewHeuristicMerge().Run(idx)
	require.NoError(t, err)

	assert.Nil(t, word.Group())
	assert.Equal(t, []*blob.Blob{symbol}, SameParent(symbol))
	assert.Equal(t, 1, stats.Seeds)
	assert.Equal(t, 0, stats.Merges)
}

func TestIdenticalGeometryIsNotMerged(t *testing.T) {
	a := box(0, 0, 8, 10)
	twin := box(0, 0, 8, 10)
	idx := build(a, twin)

	_, err := NewHeuristicMerge().Run(idx)
	require.NoError(t, err)

	assert.NotEqual(t, segmentOf(t, a), segmentOf(t, twin))
}

func TestRunIsIdempotent(t *testing.T) {
	blobs := []*blob.Blob{
		box(0, 0, 8, 10), box(10, 0, 8, 10), box(20, 0, 8, 10),
		box(100, 20, 40, 2), box(115, 25, 10, 10), box(115, 7, 10, 10),
		box(200, 0, 10, 10), box(211, 6, 5, 5),
		confident(box(300, 0, 8, 10)), confident(box(310, 0, 8, 10)),
		box(400, 400, 8, 10),
	}
	idx := build(blobs...)
	h := NewHeuristicMerge()

	_, err := h.Run(idx)
	require.NoError(t, err)
	first := assignments(idx)

	stats, err := h.Run(idx)
	require.NoError(t, err)

	assert.Equal(t, first, assignments(idx))
	assert.Equal(t, Stats{}, stats)
}

// shuffledIndex yields search results in a different order on every call.
type shuffledIndex struct {
	blob.Index
	rng *rand.Rand
}

func (s *shuffledIndex) Search(area model.BBox) iter.Seq[*blob.Blob] {
	found := slices.Collect(s.Index.Search(area))
	s.rng.Shuffle(len(found), func(i, j int) { found[i], found[j] = found[j], found[i] })
	return slices.Values(found)
}

func TestRunIgnoresSearchOrder(t *testing.T) {
	layout := func() []*blob.Blob {
		return []*blob.Blob{
			box(0, 0, 8, 10), box(9, 0, 8, 10), box(18, 0, 8, 10), box(27, 4, 8, 10),
			box(100, 20, 40, 2), box(115, 25, 10, 10), box(115, 7, 10, 10), box(128, 7, 10, 10),
			box(200, 0, 10, 10), box(211, 6, 5, 5), box(200, 60, 10, 10), box(211, 58, 5, 5),
			box(250, 0, 4, 12), box(250, 11, 4, 4),
			confident(box(300, 0, 8, 10)), box(310, 0, 8, 10),
			box(400, 400, 8, 10),
		}
	}

	plain := build(layout()...)
	want, err := NewHeuristicMerge().Run(plain)
	require.NoError(t, err)

	for seed := range uint64(5) {
		shuffled := &shuffledIndex{Index: build(layout()...), rng: rand.New(rand.NewPCG(seed, seed+1))}
		got, err := NewHeuristicMerge().Run(shuffled)
		require.NoError(t, err)

		assert.Equal(t, want, got, "seed %d", seed)
		assert.Equal(t, assignments(plain), assignments(shuffled), "seed %d", seed)
	}
}

func TestMergeChainIsBounded(t *testing.T) {
	const n = 12
	var blobs []*blob.Blob
	for i := 0; i < n; i++ {
		blobs = append(blobs, box(float64(i*12), 0, 10, 10))
	}
	idx := build(blobs...)

	config := DefaultConfig()
	config.MergeRecursions = 3
	stats, err := NewHeuristicMergeWithConfig(config).Run(idx)
	require.NoError(t, err)

	for i, b := range blobs {
		assert.Len(t, SameParent(b), config.MergeRecursions+1, "blob %d", i)
		assert.Equal(t, segmentOf(t, blobs[i/4*4]), segmentOf(t, b), "blob %d", i)
	}
	assert.Equal(t, 3, stats.Seeds)
	assert.Equal(t, 3, stats.Truncated)
}

func TestZeroRecursionsLeavesSingletons(t *testing.T) {
	a := box(0, 0, 8, 10)
	b := box(10, 0, 8, 10)
	idx := build(a, b)

	config := DefaultConfig()
	config.MergeRecursions = 0
	stats, err := NewHeuristicMergeWithConfig(config).Run(idx)
	require.NoError(t, err)

	assert.NotEqual(t, segmentOf(t, a), segmentOf(t, b))
	assert.Equal(t, 2, stats.Singletons)
}

func TestRunWithFeaturesReusesExtractors(t *testing.T) {
	a := box(0, 0, 8, 10)
	b := box(10, 0, 8, 10)
	idx := build(a, b)

	set := feature.NewSet(idx, feature.DefaultConfig())
	require.NoError(t, set.Use(feature.NestedName, feature.AlignedName))
	slots := a.NumSlots()

	_, err := NewHeuristicMerge().RunWithFeatures(set)
	require.NoError(t, err)

	assert.Equal(t, slots+2, a.NumSlots())
	assert.Equal(t, segmentOf(t, a), segmentOf(t, b))
}

func TestAssemble(t *testing.T) {
	a := box(0, 0, 8, 10)
	b := box(10, 0, 8, 10)
	word := confident(box(100, 0, 30, 10))
	bar := box(0, 100, 40, 2)
	numerator := box(15, 105, 10, 10)
	denominator := box(15, 87, 10, 10)
	lonely := box(300, 300, 8, 10)
	idx := build(a, b, word, bar, numerator, denominator, lonely)

	config := DefaultConfig()
	_, err := NewHeuristicMergeWithConfig(config).Run(idx)
	require.NoError(t, err)

	regions := Assemble(idx, config)
	require.Len(t, regions, 2)

	assert.Equal(t, model.RegionEmbedded, regions[0].Kind)
	assert.Equal(t, model.NewBBox(0, 0, 18, 10), regions[0].BBox)
	assert.Equal(t, 2, regions[0].Members)
	assert.Equal(t, int(segmentOf(t, a)), regions[0].Segment)

	assert.Equal(t, model.RegionDisplayed, regions[1].Kind)
	assert.Equal(t, model.NewBBox(0, 87, 40, 28), regions[1].BBox)
	assert.Equal(t, 3, regions[1].Members)

	config.MinRegionMembers = 1
	assert.Len(t, Assemble(idx, config), 3)
}
