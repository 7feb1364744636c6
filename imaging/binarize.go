package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Ink and Paper are the two values of a binarized image.
const (
	Ink   uint8 = 0
	Paper uint8 = 255
)

// Grayscale converts img to an 8-bit grayscale image with its origin at
// (0, 0).
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) &&
		g.Stride == g.Rect.Dx() && len(g.Pix) == g.Rect.Dx()*g.Rect.Dy() {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// OtsuThreshold returns the gray level that best separates the two classes
// of the histogram of gray, maximizing between-class variance. Pixels at or
// below the threshold are ink.
func OtsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 127
	}
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB    float64
		weightB int
		best    float64
		level   uint8
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// Binarize converts img to a bilevel image of Ink and Paper pixels using
// Otsu's threshold. A uniform image becomes all Paper.
func Binarize(img image.Image) *image.Gray {
	gray := Grayscale(img)
	t := OtsuThreshold(gray)

	lo, hi := uint8(255), uint8(0)
	for _, v := range gray.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := image.NewGray(gray.Rect)
	for i, v := range gray.Pix {
		if lo != hi && v <= t {
			out.Pix[i] = Ink
		} else {
			out.Pix[i] = Paper
		}
	}
	return out
}
