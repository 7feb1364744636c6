// Package results reads and writes detection results: ".rect" files, one
// region per line, and COCO-style detection JSON as served over HTTP.
package results

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/mathfind/model"
)

// Rect is one detected region of a page image, in raster coordinates.
type Rect struct {
	Image string
	Kind  model.RegionKind
	Box   image.Rectangle
}

// FromRegions converts the regions found on one page image into raster
// rectangles.
func FromRegions(imageName string, regions []model.Region, imageHeight int) []Rect {
	rects := make([]Rect, 0, len(regions))
	for _, r := range regions {
		rects = append(rects, Rect{
			Image: imageName,
			Kind:  r.Kind,
			Box:   r.BBox.Rect(imageHeight),
		})
	}
	return rects
}

// WriteRects writes rects as lines of "image label x1 y1 x2 y2".
func WriteRects(w io.Writer, rects []Rect) error {
	bw := bufio.NewWriter(w)
	for _, r := range rects {
		if strings.ContainsAny(r.Image, " \t\n") {
			return fmt.Errorf("image name %q contains whitespace", r.Image)
		}
		_, err := fmt.Fprintf(bw, "%s %s %d %d %d %d\n",
			r.Image, r.Kind, r.Box.Min.X, r.Box.Min.Y, r.Box.Max.X, r.Box.Max.Y)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadRects parses a .rect stream. Blank lines are skipped.
func ReadRects(r io.Reader) ([]Rect, error) {
	var rects []Rect
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 6 {
			return nil, fmt.Errorf("line %d: expected 6 fields, got %d", line, len(fields))
		}

		kind, err := model.ParseRegionKind(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var v [4]int
		for i := range v {
			v[i], err = strconv.Atoi(fields[2+i])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		rects = append(rects, Rect{
			Image: fields[0],
			Kind:  kind,
			Box:   image.Rect(v[0], v[1], v[2], v[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rects, nil
}

// WriteRectFile writes rects to path, replacing any existing file.
func WriteRectFile(path string, rects []Rect) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRects(f, rects); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRectFile reads the .rect file at path.
func ReadRectFile(path string) ([]Rect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRects(f)
}
