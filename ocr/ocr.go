//go:build ocr

package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled is returned by the stub build; the OCR-enabled build
// never returns it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client wraps Tesseract for OCR operations. It is safe for concurrent use;
// recognitions are serialized.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	if err := client.SetVariable("hocr_char_boxes", "1"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to enable character boxes: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.client.Close()
	c.client = nil
	return err
}

// SetLanguage sets the language(s) for OCR recognition.
// Multiple languages can be specified as a "+" separated string (e.g., "eng+fra").
// Default is "eng" (English).
func (c *Client) SetLanguage(lang string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.SetLanguage(strings.Split(lang, "+")...)
}

// Recognize performs OCR on image data (PNG, TIFF, JPEG, etc.) and returns
// word and symbol boxes with their confidences. Results are read from the
// engine's hOCR output; when it carries no character boxes, symbols come
// from the engine's symbol iterator instead.
func (c *Client) Recognize(ctx context.Context, imageData []byte) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	hocr, err := c.client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	page, err := ParseHOCR(strings.NewReader(hocr))
	if err != nil {
		return nil, err
	}
	if len(page.Symbols) > 0 {
		return page, nil
	}

	symbols, err := c.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	for _, s := range symbols {
		page.Symbols = append(page.Symbols, Symbol{
			Text:       strings.TrimSpace(s.Word),
			Box:        s.Box,
			Confidence: s.Confidence,
		})
	}
	return page, nil
}
