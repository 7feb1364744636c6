package segment

import (
	"sort"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/model"
)

// Assemble returns one region per segment of idx with at least
// MinRegionMembers members, ordered by lowest member ID. The region box is
// the union of its members' boxes.
//
// A region is displayed when no confidently recognized text shares its row,
// and embedded otherwise.
func Assemble(idx blob.Index, config Config) []model.Region {
	minMembers := config.MinRegionMembers
	if minMembers < 1 {
		minMembers = 1
	}

	var page model.BBox
	first := true
	seen := make(map[*blob.Group]bool)
	var groups []*blob.Group
	for b := range idx.All() {
		if first {
			page, first = b.BBox, false
		} else {
			page = page.Union(b.BBox)
		}
		g := b.Group()
		if g == nil || seen[g] {
			continue
		}
		seen[g] = true
		if g.Len() >= minMembers {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members[0].ID < groups[j].Members[0].ID
	})

	regions := make([]model.Region, 0, len(groups))
	for _, g := range groups {
		kind := model.RegionDisplayed
		if sharesRowWithText(idx, g, page, config.CertaintyThreshold) {
			kind = model.RegionEmbedded
		}
		regions = append(regions, model.Region{
			Segment: int(g.ID),
			Kind:    kind,
			BBox:    g.Box,
			Members: g.Len(),
		})
	}

	config.logger().Debug("regions assembled", "segments", len(seen), "regions", len(regions))
	return regions
}

// sharesRowWithText reports whether a confident text blob outside g has its
// vertical centre within g's vertical extent.
func sharesRowWithText(idx blob.Index, g *blob.Group, page model.BBox, threshold float64) bool {
	row := model.NewBBox(page.X, g.Box.Y, page.Width, g.Box.Height)
	for c := range idx.Search(row) {
		if c.Group() == g || !c.IsConfidentText(threshold) {
			continue
		}
		if y := c.BBox.Center().Y; y >= g.Box.Bottom() && y <= g.Box.Top() {
			return true
		}
	}
	return false
}
