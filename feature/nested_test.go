package feature

import (
	"image"
	"iter"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/model"
)

// sliceIndex answers searches by scanning its blobs in slice order.
type sliceIndex []*blob.Blob

func (s sliceIndex) All() iter.Seq[*blob.Blob] {
	return func(yield func(*blob.Blob) bool) {
		for _, b := range s {
			if !yield(b) {
				return
			}
		}
	}
}

func (s sliceIndex) Search(box model.BBox) iter.Seq[*blob.Blob] {
	return func(yield func(*blob.Blob) bool) {
		for _, b := range s {
			if b.BBox.Intersects(box) && !yield(b) {
				return
			}
		}
	}
}

func (s sliceIndex) Len() int { return len(s) }

// duplicatingIndex returns every search hit twice, as overlapping buckets of
// a spatial index may.
type duplicatingIndex struct{ sliceIndex }

func (d duplicatingIndex) Search(box model.BBox) iter.Seq[*blob.Blob] {
	return func(yield func(*blob.Blob) bool) {
		for b := range d.sliceIndex.Search(box) {
			if !yield(b) || !yield(b) {
				return
			}
		}
	}
}

// shuffledIndex returns search hits in a pseudo-random order.
type shuffledIndex struct {
	sliceIndex
	rng *rand.Rand
}

func (s shuffledIndex) Search(box model.BBox) iter.Seq[*blob.Blob] {
	return func(yield func(*blob.Blob) bool) {
		var hits []*blob.Blob
		for b := range s.sliceIndex.Search(box) {
			hits = append(hits, b)
		}
		s.rng.Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
		for _, b := range hits {
			if !yield(b) {
				return
			}
		}
	}
}

func newBlob(id blob.ID, x, y, w, h float64) *blob.Blob {
	b := blob.New(model.NewBBox(x, y, w, h))
	b.ID = id
	return b
}

const threshold = -6.0

func TestCountNestedNoNeighbors(t *testing.T) {
	lonely := newBlob(1, 0, 0, 50, 50)
	far := newBlob(2, 500, 500, 10, 10)
	idx := sliceIndex{lonely, far}

	assert.Equal(t, 0, CountNested(lonely, idx, threshold))
	assert.Equal(t, 0, CountNested(far, idx, threshold))
}

func TestCountNestedParentChildScenario(t *testing.T) {
	a := newBlob(1, 0, 0, 80, 80)
	b := newBlob(2, 10, 10, 12, 10)
	c := newBlob(3, 70, 70, 20, 20)
	idx := sliceIndex{a, b, c}

	assert.Equal(t, 1, CountNested(a, idx, threshold))
	assert.Equal(t, 0, CountNested(b, idx, threshold))
	assert.Equal(t, 0, CountNested(c, idx, threshold))
}

func TestCountNestedConfidentText(t *testing.T) {
	tests := []struct {
		name   string
		inWord bool
		word   float64
		char   float64
		want   int
	}{
		{"confident word member", true, -2, blob.MinCertainty, 0},
		{"confident character", false, blob.MinCertainty, -1, 0},
		{"confident word but not a member", false, -2, blob.MinCertainty, 1},
		{"unconfident word member", true, -8, -4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newBlob(1, 0, 0, 100, 100)
			d.InWord = tt.inWord
			d.WordConfidence = tt.word
			d.CharConfidence = tt.char
			e := newBlob(2, 20, 20, 30, 30)

			assert.Equal(t, tt.want, CountNested(d, sliceIndex{d, e}, threshold))
		})
	}
}

func TestCountNestedAreaBoundary(t *testing.T) {
	parent := newBlob(1, 0, 0, 80, 80)

	exact := newBlob(2, 10, 10, 10, 10)
	assert.Equal(t, 1, CountNested(parent, sliceIndex{parent, exact}, threshold))

	below := newBlob(2, 10, 10, 10, 9.99)
	assert.Equal(t, 0, CountNested(parent, sliceIndex{parent, below}, threshold))
}

func TestCountNestedContainmentIsInclusive(t *testing.T) {
	parent := newBlob(1, 0, 0, 80, 80)
	flush := newBlob(2, 0, 0, 40, 80)
	poking := newBlob(3, 60, 10, 21, 10)

	assert.Equal(t, 1, CountNested(parent, sliceIndex{parent, flush, poking}, threshold))
}

func TestCountNestedSkipsIdenticalGeometry(t *testing.T) {
	parent := newBlob(1, 0, 0, 80, 80)
	twin := newBlob(2, 0, 0, 80, 80)

	assert.Equal(t, 0, CountNested(parent, sliceIndex{parent, twin}, threshold))
}

func TestCountNestedDegenerateParent(t *testing.T) {
	line := newBlob(1, 0, 0, 80, 0)
	dot := newBlob(2, 10, 0, 0, 0)

	assert.Equal(t, 0, CountNested(line, sliceIndex{line, dot}, threshold))
}

func TestCountNestedNoDoubleCounting(t *testing.T) {
	parent := newBlob(1, 0, 0, 80, 80)
	child := newBlob(2, 10, 10, 20, 20)
	idx := duplicatingIndex{sliceIndex{parent, child}}

	assert.Equal(t, 1, CountNested(parent, idx, threshold))
}

func TestCountNestedOrderInvariant(t *testing.T) {
	blobs := sliceIndex{
		newBlob(1, 0, 0, 100, 100),
		newBlob(2, 5, 5, 20, 20),
		newBlob(3, 30, 5, 20, 20),
		newBlob(4, 60, 60, 30, 30),
		newBlob(5, 90, 90, 30, 30),
		newBlob(6, 40, 40, 5, 5),
		newBlob(7, 40, 40, 13, 13),
	}
	want := CountNested(blobs[0], blobs, threshold)
	require.Equal(t, 4, want)

	for seed := int64(1); seed <= 20; seed++ {
		idx := shuffledIndex{sliceIndex: blobs, rng: rand.New(rand.NewSource(seed))}
		assert.Equal(t, want, CountNested(blobs[0], idx, threshold), "seed %d", seed)
	}
}

func TestNestedPreprocessAndExtract(t *testing.T) {
	a := newBlob(1, 0, 0, 80, 80)
	b := newBlob(2, 10, 10, 12, 10)
	idx := sliceIndex{a, b}
	n := NewNested(DefaultConfig())

	_, err := n.Extract(a)
	assert.ErrorIs(t, err, ErrNotPreprocessed)

	require.NoError(t, n.Preprocess(idx))

	features, err := n.Extract(a)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, NestedName, features[0].Extractor)
	assert.InDelta(t, ExpNormalize(1), features[0].Value, 1e-12)

	count, err := n.Count(a)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	features, err = n.Extract(b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, features[0].Value)

	assert.ErrorIs(t, n.Preprocess(idx), ErrAlreadyPreprocessed)
}

func TestNestedPreprocessUsesOpenSlot(t *testing.T) {
	a := newBlob(1, 0, 0, 80, 80)
	b := newBlob(2, 10, 10, 12, 10)
	for _, x := range []*blob.Blob{a, b} {
		require.NoError(t, x.AppendData(0, &blob.AlignedData{}))
	}

	n := NewNested(DefaultConfig())
	require.NoError(t, n.Preprocess(sliceIndex{a, b}))

	data, err := blob.Slot[*blob.NestedData](a, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, data.Count)
}

func TestNestedPreprocessFailsOnOccupiedSlot(t *testing.T) {
	a := newBlob(1, 0, 0, 80, 80)
	n := NewNested(DefaultConfig())

	err := n.Preprocess(sliceIndex{a, a})
	assert.ErrorIs(t, err, blob.ErrSlotOccupied)

	_, err = n.Extract(a)
	assert.ErrorIs(t, err, ErrNotPreprocessed)
}

func TestNestedDebugImage(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.Debug = true
	config.FeatureDir = dir
	config.ImageName = "page-1"
	config.Image = image.NewGray(image.Rect(0, 0, 120, 120))

	a := newBlob(1, 0, 0, 80, 80)
	b := newBlob(2, 10, 10, 12, 10)
	require.NoError(t, NewNested(config).Preprocess(sliceIndex{a, b}))

	info, err := os.Stat(filepath.Join(dir, "Nested", "page-1.png"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExpNormalize(t *testing.T) {
	assert.Equal(t, 0.0, ExpNormalize(0))
	assert.InDelta(t, 0.632, ExpNormalize(1), 1e-3)
	assert.Less(t, ExpNormalize(50), 1.0)
	assert.Greater(t, ExpNormalize(3), ExpNormalize(2))
}
