package imaging

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Mark colors.
var (
	Red  = color.RGBA{R: 255, A: 255}
	Blue = color.RGBA{B: 255, A: 255}
)

// Mark is a rectangle outline drawn by Overlay.
type Mark struct {
	Rect  image.Rectangle
	Color color.Color
	Label string
}

// OverlayConfig holds configuration for overlays.
type OverlayConfig struct {
	// Thickness is the outline width in pixels (default: 2)
	Thickness int
}

// DefaultOverlayConfig returns sensible default configuration
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{Thickness: 2}
}

// Overlay returns a copy of img with every mark outlined.
func Overlay(img image.Image, marks []Mark) *image.RGBA {
	return OverlayWithConfig(img, marks, DefaultOverlayConfig())
}

// OverlayWithConfig returns a copy of img with every mark outlined. Labels
// are written above the top-left corner, or inside it when there is no room.
func OverlayWithConfig(img image.Image, marks []Mark, config OverlayConfig) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	t := config.Thickness
	if t < 1 {
		t = 1
	}
	for _, m := range marks {
		r := m.Rect.Canon().Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		src := image.NewUniform(m.Color)
		for _, edge := range outline(r, t) {
			draw.Draw(out, edge, src, image.Point{}, draw.Over)
		}
		if m.Label != "" {
			label(out, r, m.Label, src)
		}
	}
	return out
}

// outline returns the four edge strips of r, each at most t pixels wide.
func outline(r image.Rectangle, t int) []image.Rectangle {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for i := range edges {
		edges[i] = edges[i].Intersect(r)
	}
	return edges
}

func label(dst *image.RGBA, r image.Rectangle, text string, src image.Image) {
	face := basicfont.Face7x13
	y := r.Min.Y - 2
	if y-face.Ascent < 0 {
		y = r.Min.Y + face.Ascent + 1
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(r.Min.X, y),
	}
	d.DrawString(text)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeJPEG writes img as JPEG with the given quality (1-100, 0 selects the
// default).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
