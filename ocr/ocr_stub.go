//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned by every Client operation in builds without
// the "ocr" tag.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client stands in for the Tesseract client when OCR is not compiled in.
type Client struct{}

// New always fails with ErrOCRNotEnabled.
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close does nothing. A nil client may be closed.
func (c *Client) Close() error { return nil }

// SetLanguage fails with ErrOCRNotEnabled.
func (c *Client) SetLanguage(string) error { return ErrOCRNotEnabled }

// Recognize fails with ErrOCRNotEnabled.
func (c *Client) Recognize(context.Context, []byte) (*Page, error) {
	return nil, ErrOCRNotEnabled
}
