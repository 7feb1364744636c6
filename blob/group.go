package blob

import (
	"sort"

	"github.com/tsawler/mathfind/model"
)

// SegmentID identifies a merge group.
type SegmentID int

// Group is a merge segment: the set of blobs unioned into one candidate
// expression region.
type Group struct {
	// ID is the segment identity, positive once allocated
	ID SegmentID

	// Members are the blobs of the segment, ordered by blob ID
	Members []*Blob

	// Box is the union of the member bounding boxes
	Box model.BBox
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.Members)
}

// add inserts b keeping Members ordered by ID.
func (g *Group) add(b *Blob) {
	i := sort.Search(len(g.Members), func(i int) bool { return g.Members[i].ID >= b.ID })
	g.Members = append(g.Members, nil)
	copy(g.Members[i+1:], g.Members[i:])
	g.Members[i] = b
	if len(g.Members) == 1 {
		g.Box = b.BBox
	} else {
		g.Box = g.Box.Union(b.BBox)
	}
	b.group = g
}

// Groups allocates segment identities for the blobs of one index.
type Groups struct {
	next SegmentID
}

// NewGroups returns an allocator whose identities continue after any group
// already present in idx.
func NewGroups(idx Index) *Groups {
	var maxID SegmentID
	for b := range idx.All() {
		if b.group != nil && b.group.ID > maxID {
			maxID = b.group.ID
		}
	}
	return &Groups{next: maxID}
}

// Start returns the group of b, creating a singleton group if b has none.
func (a *Groups) Start(b *Blob) *Group {
	if b.group != nil {
		return b.group
	}
	a.next++
	g := &Group{ID: a.next}
	g.add(b)
	return g
}

// Join merges b into g. An ungrouped blob is added directly; a blob that
// already belongs to another group brings its whole group along, and g's
// identity is kept. Joining a member of g is a no-op.
func (a *Groups) Join(g *Group, b *Blob) {
	switch other := b.group; {
	case other == g:
		return
	case other == nil:
		g.add(b)
	default:
		for _, m := range other.Members {
			g.add(m)
		}
		other.Members = nil
	}
}
