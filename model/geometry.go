package model

import (
	"image"
	"math"
)

// Point is a position in document coordinates.
type Point struct {
	X, Y float64
}

// BBox represents an axis-aligned bounding box in document coordinates,
// where Y grows upward and Bottom() <= Top().
type BBox struct {
	X      float64 // Left
	Y      float64 // Bottom
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from its bottom-left corner and size.
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y
}

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 {
	return b.Y + b.Height
}

// Center returns the center point
func (b BBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// Contains reports whether p lies inside the box, edges included.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Bottom() && p.Y <= b.Top()
}

// ContainsBox reports whether other lies entirely inside b, edges included.
// Degenerate boxes never contain anything.
func (b BBox) ContainsBox(other BBox) bool {
	if b.IsEmpty() || other.Width < 0 || other.Height < 0 {
		return false
	}
	return other.Left() >= b.Left() && other.Right() <= b.Right() &&
		other.Bottom() >= b.Bottom() && other.Top() <= b.Top()
}

// Intersects reports whether the boxes overlap. Boxes that only touch
// along an edge intersect.
func (b BBox) Intersects(other BBox) bool {
	return b.Right() >= other.Left() && b.Left() <= other.Right() &&
		b.Top() >= other.Bottom() && b.Bottom() <= other.Top()
}

// Union returns the smallest box covering both boxes.
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Bottom(), other.Bottom())
	return BBox{
		X:      x,
		Y:      y,
		Width:  math.Max(b.Right(), other.Right()) - x,
		Height: math.Max(b.Top(), other.Top()) - y,
	}
}

// Area returns the area of the bounding box
func (b BBox) Area() float64 {
	return b.Width * b.Height
}

// IsEmpty returns true if the bounding box has zero area
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Extend grows the box by the given amounts on each side. Negative amounts
// are clamped to zero.
func (b BBox) Extend(left, right, down, up float64) BBox {
	left, right = math.Max(left, 0), math.Max(right, 0)
	down, up = math.Max(down, 0), math.Max(up, 0)
	return BBox{
		X:      b.X - left,
		Y:      b.Y - down,
		Width:  b.Width + left + right,
		Height: b.Height + down + up,
	}
}

// FromRect converts a raster rectangle (Y growing downward) on an image of
// the given height into a document-space bounding box.
func FromRect(r image.Rectangle, imageHeight int) BBox {
	r = r.Canon()
	return BBox{
		X:      float64(r.Min.X),
		Y:      float64(imageHeight - r.Max.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// Rect converts the box back to raster coordinates on an image of the given
// height. Fractional edges are rounded outward.
func (b BBox) Rect(imageHeight int) image.Rectangle {
	minX := int(math.Floor(b.Left()))
	maxX := int(math.Ceil(b.Right()))
	minY := imageHeight - int(math.Ceil(b.Top()))
	maxY := imageHeight - int(math.Floor(b.Bottom()))
	return image.Rect(minX, minY, maxX, maxY)
}
