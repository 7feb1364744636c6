package results

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsawler/mathfind/imaging"
	"github.com/tsawler/mathfind/model"
)

// Detections is a COCO-style detection result set.
type Detections struct {
	Images     []ImageInfo `json:"images"`
	Categories []Category  `json:"categories"`
	Detections []Detection `json:"detections"`
}

// ImageInfo identifies a page image.
type ImageInfo struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
}

// Category is a detection class. The category ID of a region is its
// model.RegionKind.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Detection is one detected region. BBox is [x, y, width, height] in raster
// coordinates.
type Detection struct {
	ImageID    int     `json:"image_id"`
	CategoryID int     `json:"category_id"`
	BBox       [4]int  `json:"bbox"`
	Score      float64 `json:"score"`
}

// Categories returns the displayed and embedded categories.
func Categories() []Category {
	return []Category{
		{ID: int(model.RegionDisplayed), Name: model.RegionDisplayed.String()},
		{ID: int(model.RegionEmbedded), Name: model.RegionEmbedded.String()},
	}
}

// FromRects builds a detection set. Images are numbered in name order; the
// heuristic detector does not score regions, so every score is 1.
func FromRects(rects []Rect) *Detections {
	names := make(map[string]bool)
	for _, r := range rects {
		names[r.Image] = true
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	d := &Detections{
		Images:     make([]ImageInfo, len(sorted)),
		Categories: Categories(),
		Detections: make([]Detection, 0, len(rects)),
	}
	ids := make(map[string]int, len(sorted))
	for i, n := range sorted {
		ids[n] = i
		d.Images[i] = ImageInfo{ID: i, FileName: n}
	}
	for _, r := range rects {
		d.Detections = append(d.Detections, Detection{
			ImageID:    ids[r.Image],
			CategoryID: int(r.Kind),
			BBox:       [4]int{r.Box.Min.X, r.Box.Min.Y, r.Box.Dx(), r.Box.Dy()},
			Score:      1,
		})
	}
	return d
}

// AddImage appends an image with no detections if name is not present yet
// and returns its ID.
func (d *Detections) AddImage(name string) int {
	for _, img := range d.Images {
		if img.FileName == name {
			return img.ID
		}
	}
	id := len(d.Images)
	d.Images = append(d.Images, ImageInfo{ID: id, FileName: name})
	return id
}

// Rects converts the detections back into raster rectangles.
func (d *Detections) Rects() ([]Rect, error) {
	names := make(map[int]string, len(d.Images))
	for _, img := range d.Images {
		names[img.ID] = img.FileName
	}
	rects := make([]Rect, 0, len(d.Detections))
	for _, det := range d.Detections {
		name, ok := names[det.ImageID]
		if !ok {
			return nil, fmt.Errorf("detection refers to unknown image %d", det.ImageID)
		}
		rects = append(rects, Rect{
			Image: name,
			Kind:  model.RegionKind(det.CategoryID),
			Box:   det.Rect(),
		})
	}
	return rects, nil
}

// ForImage returns the detections of the image with the given file name.
// With a single image in the set, its detections are returned regardless of
// name.
func (d *Detections) ForImage(fileName string) []Detection {
	id := -1
	for _, img := range d.Images {
		if img.FileName == fileName || len(d.Images) == 1 {
			id = img.ID
			break
		}
	}
	var out []Detection
	for _, det := range d.Detections {
		if det.ImageID == id {
			out = append(out, det)
		}
	}
	return out
}

// Rect returns the detection box as a raster rectangle.
func (det Detection) Rect() image.Rectangle {
	x, y, w, h := det.BBox[0], det.BBox[1], det.BBox[2], det.BBox[3]
	return image.Rect(x, y, x+w, y+h)
}

// Marks returns overlay marks for detections: red for displayed, blue for
// embedded regions.
func Marks(dets []Detection) []imaging.Mark {
	marks := make([]imaging.Mark, 0, len(dets))
	for _, det := range dets {
		c := imaging.Red
		if det.CategoryID == int(model.RegionEmbedded) {
			c = imaging.Blue
		}
		marks = append(marks, imaging.Mark{Rect: det.Rect(), Color: c})
	}
	return marks
}

// WriteJSON encodes d as indented JSON.
func WriteJSON(w io.Writer, d *Detections) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// ReadJSON decodes a detection set.
func ReadJSON(r io.Reader) (*Detections, error) {
	var d Detections
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	return &d, nil
}

// ReadFile reads a detection set from a ".rect" file or, for any other
// extension, from detection JSON.
func ReadFile(path string) (*Detections, error) {
	if strings.EqualFold(filepath.Ext(path), ".rect") {
		rects, err := ReadRectFile(path)
		if err != nil {
			return nil, err
		}
		return FromRects(rects), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}
