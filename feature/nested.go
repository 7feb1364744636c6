package feature

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/imaging"
)

// NestedName is the registry name of the nested-blob extractor.
const NestedName = "nested"

// nestedAreaDivisor bounds the area of a counted child from below:
// child area >= parent area / nestedAreaDivisor.
const nestedAreaDivisor = 64

func init() {
	Register(Registration{
		Name:        NestedName,
		Category:    CategoryGeometry,
		Description: "Number of blobs completely nested inside a blob",
		New:         func(config Config) Extractor { return NewNested(config) },
	})
}

// Nested counts, for every blob, the blobs completely and significantly
// nested inside it. Fraction bars with their operands, radicals and matrix
// brackets produce nonzero counts; the interiors of confidently recognized
// letters do not.
type Nested struct {
	config Config
	slots  slots
}

// NewNested creates a nested-blob extractor.
func NewNested(config Config) *Nested {
	return &Nested{
		config: config,
		slots:  slots{name: NestedName},
	}
}

// Describe implements Extractor.
func (n *Nested) Describe() Description {
	return describe(NestedName)
}

// Preprocess counts the nested blobs of every blob in idx and stores the
// count in a new slot of each blob.
func (n *Nested) Preprocess(idx blob.Index) error {
	if err := n.slots.claim(idx); err != nil {
		return err
	}

	withNested := 0
	for b := range idx.All() {
		count := CountNested(b, idx, n.config.CertaintyThreshold)
		data := &blob.NestedData{
			Count: count,
			Extracted: []blob.Feature{
				{Extractor: NestedName, Value: ExpNormalize(float64(count))},
			},
		}
		if err := n.slots.put(b, data); err != nil {
			return err
		}
		if count > 0 {
			withNested++
		}
	}
	n.slots.ready = true

	n.config.logger().Debug("nested blobs counted",
		"blobs", idx.Len(),
		"with_nested", withNested,
		"slot", n.slots.key,
	)

	if n.config.Debug {
		if err := n.writeDebug(idx); err != nil {
			n.config.logger().Warn("nested debug image not written", "error", err)
		}
	}
	return nil
}

// Extract implements Extractor. It returns the value computed during
// preprocessing and never recomputes.
func (n *Nested) Extract(b *blob.Blob) ([]blob.Feature, error) {
	data, err := get[*blob.NestedData](&n.slots, b)
	if err != nil {
		return nil, err
	}
	return data.Features(), nil
}

// Count returns the raw nested count of b.
func (n *Nested) Count(b *blob.Blob) (int, error) {
	data, err := get[*blob.NestedData](&n.slots, b)
	if err != nil {
		return 0, err
	}
	return data.Count, nil
}

// CountNested returns the number of distinct blobs of idx whose boxes lie
// inside b's box with at least 1/64 of its area. Blobs recognized as text
// with certainty above threshold (characters: above threshold/2) have no
// nested blobs, nor do blobs with a degenerate box.
func CountNested(b *blob.Blob, idx blob.Index, threshold float64) int {
	if b.IsConfidentText(threshold) {
		return 0
	}
	box := b.BBox
	if box.IsEmpty() {
		return 0
	}
	minArea := box.Area() / nestedAreaDivisor

	seen := roaring.New()
	count := 0
	for c := range idx.Search(box) {
		if c == b || c.BBox == box || seen.Contains(uint32(c.ID)) {
			continue
		}
		if !box.ContainsBox(c.BBox) || c.BBox.Area() < minArea {
			continue
		}
		seen.Add(uint32(c.ID))
		count++
	}
	return count
}

// writeDebug writes the source image with every blob holding nested blobs
// outlined in red to <FeatureDir>/Nested/<ImageName>.png.
func (n *Nested) writeDebug(idx blob.Index) error {
	img := n.config.Image
	if img == nil || n.config.ImageName == "" {
		return nil
	}
	height := img.Bounds().Dy()

	var marks []imaging.Mark
	for b := range idx.All() {
		count, err := n.Count(b)
		if err != nil {
			return err
		}
		if count > 0 {
			marks = append(marks, imaging.Mark{
				Rect:  b.BBox.Rect(height),
				Color: imaging.Red,
				Label: fmt.Sprint(count),
			})
		}
	}

	dir := filepath.Join(n.config.FeatureDir, "Nested")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, n.config.ImageName+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := imaging.EncodePNG(f, imaging.Overlay(img, marks)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	n.config.logger().Debug("nested debug image written", "path", path, "marked", len(marks))
	return nil
}

// describe builds the Description of a registered extractor.
func describe(name string) Description {
	r, err := Lookup(name)
	if err != nil {
		return Description{Name: name}
	}
	return Description{Name: r.Name, Category: r.Category, Text: r.Description}
}
