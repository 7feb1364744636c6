package blob

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mathfind/model"
)

type sliceIndex []*Blob

func (s sliceIndex) All() iter.Seq[*Blob] {
	return func(yield func(*Blob) bool) {
		for _, b := range s {
			if !yield(b) {
				return
			}
		}
	}
}

func (s sliceIndex) Search(box model.BBox) iter.Seq[*Blob] {
	return func(yield func(*Blob) bool) {
		for _, b := range s {
			if b.BBox.Intersects(box) && !yield(b) {
				return
			}
		}
	}
}

func (s sliceIndex) Len() int { return len(s) }

func newBlob(id ID, x, y, w, h float64) *Blob {
	b := New(model.NewBBox(x, y, w, h))
	b.ID = id
	return b
}

func TestNewIsUnrecognized(t *testing.T) {
	b := New(model.NewBBox(0, 0, 10, 10))
	assert.Equal(t, MinCertainty, b.WordConfidence)
	assert.Equal(t, MinCertainty, b.CharConfidence)
	assert.False(t, b.InWord)
	assert.False(t, b.IsConfidentText(-6))
	_, ok := b.SegmentID()
	assert.False(t, ok)
}

func TestIsConfidentText(t *testing.T) {
	const threshold = -6.0

	tests := []struct {
		name   string
		inWord bool
		word   float64
		char   float64
		want   bool
	}{
		{"unrecognized", false, MinCertainty, MinCertainty, false},
		{"confident word member", true, -2, MinCertainty, true},
		{"confident word but not a member", false, -2, MinCertainty, false},
		{"word at threshold", true, threshold, MinCertainty, false},
		{"confident character", false, MinCertainty, -2.9, true},
		{"character at half threshold", false, MinCertainty, threshold / 2, false},
		{"character below half threshold", true, -7, -4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(model.NewBBox(0, 0, 1, 1))
			b.InWord = tt.inWord
			b.WordConfidence = tt.word
			b.CharConfidence = tt.char
			assert.Equal(t, tt.want, b.IsConfidentText(threshold))
		})
	}
}

func TestCertaintyFromPercent(t *testing.T) {
	assert.Equal(t, 0.0, CertaintyFromPercent(100))
	assert.Equal(t, -10.0, CertaintyFromPercent(50))
	assert.Equal(t, MinCertainty, CertaintyFromPercent(0))
	assert.Equal(t, MinCertainty, CertaintyFromPercent(-1))
	assert.Equal(t, MaxCertainty, CertaintyFromPercent(120))
}

func TestAppendData(t *testing.T) {
	b := newBlob(1, 0, 0, 10, 10)

	require.NoError(t, b.AppendData(0, &NestedData{Count: 2}))
	require.NoError(t, b.AppendData(1, &AlignedData{Right: 1}))
	assert.Equal(t, 2, b.NumSlots())

	err := b.AppendData(0, &NestedData{})
	assert.ErrorIs(t, err, ErrSlotOccupied)

	err = b.AppendData(5, &NestedData{})
	assert.ErrorIs(t, err, ErrSlotMissing)

	nested, err := Slot[*NestedData](b, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, nested.Count)

	_, err = Slot[*StackedData](b, 1)
	assert.ErrorIs(t, err, ErrSlotType)

	_, err = b.DataAt(2)
	assert.ErrorIs(t, err, ErrSlotMissing)
}

func TestNextSlotKey(t *testing.T) {
	a := newBlob(1, 0, 0, 10, 10)
	c := newBlob(2, 20, 0, 10, 10)
	idx := sliceIndex{a, c}

	assert.Equal(t, SlotKey(0), NextSlotKey(idx))

	require.NoError(t, a.AppendData(0, &NestedData{}))
	require.NoError(t, c.AppendData(0, &NestedData{}))
	assert.Equal(t, SlotKey(1), NextSlotKey(idx))
}

func TestGroups(t *testing.T) {
	a := newBlob(1, 0, 0, 10, 10)
	b := newBlob(2, 20, 0, 10, 10)
	c := newBlob(3, 40, 0, 10, 10)
	d := newBlob(4, 60, 0, 10, 10)
	groups := NewGroups(sliceIndex{a, b, c, d})

	g := groups.Start(b)
	assert.Equal(t, SegmentID(1), g.ID)
	assert.Same(t, g, groups.Start(b))

	groups.Join(g, a)
	assert.Equal(t, []*Blob{a, b}, g.Members)
	assert.Equal(t, model.NewBBox(0, 0, 30, 10), g.Box)

	other := groups.Start(d)
	groups.Join(other, c)
	groups.Join(g, c)

	assert.Equal(t, []*Blob{a, b, c, d}, g.Members)
	assert.Empty(t, other.Members)
	for _, m := range []*Blob{a, b, c, d} {
		id, ok := m.SegmentID()
		require.True(t, ok)
		assert.Equal(t, g.ID, id)
	}
	assert.Equal(t, []*Blob{a, b, c, d}, d.SameParent())

	groups.Join(g, a)
	assert.Len(t, g.Members, 4)
}

func TestNewGroupsContinuesIdentities(t *testing.T) {
	a := newBlob(1, 0, 0, 10, 10)
	b := newBlob(2, 20, 0, 10, 10)
	first := NewGroups(sliceIndex{a, b})
	first.Start(a)
	first.Start(b)

	second := NewGroups(sliceIndex{a, b})
	c := newBlob(3, 40, 0, 10, 10)
	assert.Equal(t, SegmentID(3), second.Start(c).ID)
}

func TestSameParentUngrouped(t *testing.T) {
	a := newBlob(1, 0, 0, 10, 10)
	assert.Equal(t, []*Blob{a}, a.SameParent())
}
