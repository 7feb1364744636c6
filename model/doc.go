// Package model defines the geometry and result types shared by the
// detection pipeline.
//
// Boxes are kept in document coordinates: the origin is the bottom-left
// corner of the page and Y grows upward. Images are addressed in raster
// coordinates, with Y growing downward; [FromRect] and [BBox.Rect] convert
// between the two for an image of known height:
//
//	box := model.FromRect(image.Rect(10, 40, 18, 50), 100)
//	// box == BBox{X: 10, Y: 50, Width: 8, Height: 10}
//	r := box.Rect(100) // back to (10,40)-(18,50)
//
// A [Region] is the output of segmentation: the box of one merged segment
// and whether it is [RegionDisplayed] or [RegionEmbedded].
package model
