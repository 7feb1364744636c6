package ocr

import (
	"context"
	"image"
)

// Word is a word recognized by the OCR engine.
type Word struct {
	Text string

	// Box is the word's bounding box in raster coordinates
	Box image.Rectangle

	// Confidence is the engine's confidence, 0-100
	Confidence float64
}

// Symbol is a single recognized character.
type Symbol struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Page holds the recognition results for one page image.
type Page struct {
	Words   []Word
	Symbols []Symbol
}

// Recognizer recognizes the words and symbols of an encoded page image.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte) (*Page, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, imageData []byte) (*Page, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, imageData []byte) (*Page, error) {
	return f(ctx, imageData)
}

// PageRecognizer returns a Recognizer that answers every image with page,
// for results recognized ahead of time, such as a saved hOCR file.
func PageRecognizer(page *Page) Recognizer {
	return RecognizerFunc(func(ctx context.Context, _ []byte) (*Page, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return page, nil
	})
}
