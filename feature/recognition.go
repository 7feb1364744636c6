package feature

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/mathfind/blob"
)

// RecognitionName is the registry name of the operator classifier.
const RecognitionName = "recognition"

func init() {
	Register(Registration{
		Name:        RecognitionName,
		Category:    CategoryRecognition,
		Description: "Operator and fraction bar classification from recognized symbols and glyph shape",
		New:         func(config Config) Extractor { return NewRecognition(config) },
	})
}

// operators are connector glyphs, after NFKC normalization.
var operators = map[string]bool{
	"+": true, "-": true, "−": true, "=": true, "×": true, "÷": true,
	"±": true, "∓": true, "<": true, ">": true, "≤": true, "≥": true,
	"≠": true, "≈": true, "≡": true, "∼": true, "·": true, "*": true,
	"/": true, "∑": true, "∏": true, "∫": true, "√": true, "→": true,
	"∈": true, "⊂": true, "∪": true, "∩": true,
}

// bars are operators drawn as a flat horizontal stroke.
var bars = map[string]bool{
	"-": true, "−": true, "_": true, "—": true, "–": true,
}

// Recognition classifies blobs as operators from their recognized symbol,
// falling back to glyph shape for flat blobs the OCR engine left
// unrecognized.
type Recognition struct {
	config Config
	slots  slots
}

// NewRecognition creates an operator classifier.
func NewRecognition(config Config) *Recognition {
	return &Recognition{
		config: config,
		slots:  slots{name: RecognitionName},
	}
}

// Describe implements Extractor.
func (r *Recognition) Describe() Description {
	return describe(RecognitionName)
}

// Preprocess implements Extractor.
func (r *Recognition) Preprocess(idx blob.Index) error {
	if err := r.slots.claim(idx); err != nil {
		return err
	}
	ops := 0
	for b := range idx.All() {
		data := Classify(b, r.config.Geometry)
		data.Extracted = []blob.Feature{
			{Extractor: RecognitionName, Value: boolFeature(data.Operator)},
			{Extractor: RecognitionName, Value: boolFeature(data.Bar)},
		}
		if err := r.slots.put(b, data); err != nil {
			return err
		}
		if data.Operator {
			ops++
		}
	}
	r.slots.ready = true
	r.config.logger().Debug("operators classified", "blobs", idx.Len(), "operators", ops, "slot", r.slots.key)
	return nil
}

// Extract implements Extractor.
func (r *Recognition) Extract(b *blob.Blob) ([]blob.Feature, error) {
	data, err := get[*blob.RecognitionData](&r.slots, b)
	if err != nil {
		return nil, err
	}
	return data.Features(), nil
}

// Data returns the recognition data of b.
func (r *Recognition) Data(b *blob.Blob) (*blob.RecognitionData, error) {
	return get[*blob.RecognitionData](&r.slots, b)
}

// IsOperator reports whether b was classified as a connector glyph.
func (r *Recognition) IsOperator(b *blob.Blob) (bool, error) {
	data, err := r.Data(b)
	if err != nil {
		return false, err
	}
	return data.Operator, nil
}

// Classify derives operator data for b without storing it.
func Classify(b *blob.Blob, g Geometry) *blob.RecognitionData {
	symbol := NormalizeSymbol(b.Text)
	bar := bars[symbol]
	if symbol == "" && b.BBox.Height > 0 && b.BBox.Width >= g.BarAspect*b.BBox.Height {
		bar = true
	}
	return &blob.RecognitionData{
		Symbol:   symbol,
		Operator: bar || operators[symbol],
		Bar:      bar,
	}
}

// NormalizeSymbol returns the NFKC form of recognized text with surrounding
// space removed, so compatibility variants such as fullwidth "＋" compare
// equal to their plain forms.
func NormalizeSymbol(text string) string {
	return strings.TrimSpace(norm.NFKC.String(text))
}
