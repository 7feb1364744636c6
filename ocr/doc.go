// Package ocr recognizes the words and characters of page images and copies
// the results onto blobs.
//
// Recognition results arrive as a [Page] of word and symbol boxes in raster
// coordinates, either from a [Recognizer] such as [Client] or from an hOCR
// document read with [ParseHOCR]. [Apply] then transfers them to the blobs
// whose centres they cover, converting engine confidences (0-100) to the
// blob certainty scale.
//
// # Build tags
//
// [Client] drives Tesseract through gosseract and is only functional when
// built with the "ocr" tag:
//
//	go build -tags ocr ./...
//
// Tesseract and its language data must be installed (tesseract-ocr on
// Debian and Ubuntu, tesseract on Homebrew). Without the tag every Client
// operation fails with [ErrOCRNotEnabled]; hOCR parsing and Apply work in
// both builds.
package ocr
