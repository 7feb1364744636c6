package blob

import (
	"math"

	"github.com/tsawler/mathfind/model"
)

// Direction is a search direction relative to a blob.
type Direction int

// Directions in merge priority order. SuperScript and SubScript search to
// the right of a blob, in its upper and lower half respectively.
const (
	Right Direction = iota
	Left
	SuperScript
	SubScript
	Up
	Down
)

// Directions lists every direction in priority order.
var Directions = []Direction{Right, Left, SuperScript, SubScript, Up, Down}

// String returns a string representation of the direction
func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case SuperScript:
		return "superscript"
	case SubScript:
		return "subscript"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// IsHorizontal reports whether searching in d moves along the X axis.
func (d Direction) IsHorizontal() bool {
	return d != Up && d != Down
}

// SearchArea returns box extended in direction d. Horizontal reach is
// measured in box heights; vertical reach in the larger of the box's width
// and height, so flat glyphs such as fraction bars still reach the rows
// above and below them.
func SearchArea(box model.BBox, d Direction, reach float64) model.BBox {
	if d.IsHorizontal() {
		r := reach * box.Height
		if d == Left {
			return box.Extend(r, 0, 0, 0)
		}
		return box.Extend(0, r, 0, 0)
	}
	r := reach * math.Max(box.Width, box.Height)
	if d == Up {
		return box.Extend(0, 0, 0, r)
	}
	return box.Extend(0, 0, r, 0)
}

// Beyond reports whether other lies entirely on the d side of box. Touching
// edges count as beyond.
func Beyond(box, other model.BBox, d Direction) bool {
	switch d {
	case Left:
		return other.Right() <= box.Left()
	case Up:
		return other.Bottom() >= box.Top()
	case Down:
		return other.Top() <= box.Bottom()
	default:
		return other.Left() >= box.Right()
	}
}

// Gap returns the distance from box to other along d. It is negative when
// the boxes overlap along that axis.
func Gap(box, other model.BBox, d Direction) float64 {
	switch d {
	case Left:
		return box.Left() - other.Right()
	case Up:
		return other.Bottom() - box.Top()
	case Down:
		return box.Bottom() - other.Top()
	default:
		return other.Left() - box.Right()
	}
}
