// Package imaging turns document page images into blob boxes and renders
// annotated images.
//
// # Decoding
//
// [Decode] accepts PNG, JPEG, GIF, TIFF and BMP input. TIFF support covers
// the CCITT group 3/4 compressed bilevel scans common for documents.
//
// # Components
//
// [Binarize] separates ink from paper with Otsu's threshold, and
// [Components] returns the bounding rectangles of the 8-connected ink
// regions, in raster order of their first pixel:
//
//	img, _, err := imaging.Decode(r)
//	if err != nil {
//	    return err
//	}
//	rects := imaging.Components(imaging.Binarize(img), 4)
//
// # Overlays
//
// [Overlay] draws outlined, optionally labelled rectangles over a copy of an
// image for debugging and for the detection viewer.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// extensions lists the file extensions Decode understands.
var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// IsImageFile reports whether path has an extension of a supported format.
func IsImageFile(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Decode decodes an image in any supported format and returns the format
// name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, string, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile decodes the image stored at path.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
