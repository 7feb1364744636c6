package mathfind

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/config"
	"github.com/tsawler/mathfind/feature"
	"github.com/tsawler/mathfind/grid"
	"github.com/tsawler/mathfind/imaging"
	"github.com/tsawler/mathfind/model"
	"github.com/tsawler/mathfind/ocr"
	"github.com/tsawler/mathfind/results"
	"github.com/tsawler/mathfind/segment"
)

// PageResult holds the analysis of one page image.
type PageResult struct {
	// Name identifies the page image in result files
	Name string

	// Width and Height are the raster size of the page image
	Width  int
	Height int

	// Blobs is the number of connected components analyzed
	Blobs int

	// Regions are the detected math expression regions, in document
	// coordinates
	Regions []model.Region

	// Segmentation and Recognition summarize the individual passes
	Segmentation segment.Stats
	Recognition  ocr.ApplyStats
}

// Rects returns the page's regions in raster coordinates.
func (p *PageResult) Rects() []results.Rect {
	return results.FromRegions(p.Name, p.Regions, p.Height)
}

// Analyzer runs the detection pipeline on page images. It holds no per-page
// state; each call builds its own blob index, so one Analyzer may serve
// concurrent calls as long as its Recognizer does.
type Analyzer struct {
	config     config.Config
	recognizer ocr.Recognizer
	logger     *Logger
}

// NewAnalyzer creates an analyzer. A nil recognizer skips recognition, and
// every blob is analyzed as unrecognized. A nil logger discards output.
func NewAnalyzer(c config.Config, recognizer ocr.Recognizer, logger *Logger) *Analyzer {
	if logger == nil {
		logger = NoopLogger()
	}
	return &Analyzer{config: c, recognizer: recognizer, logger: logger}
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() config.Config {
	return a.config
}

// Analyze detects the math regions of one page image:
//
//  1. binarize the image and collect its connected components as blobs
//  2. index the blobs in a uniform grid
//  3. apply recognition results, when a recognizer is configured
//  4. run the nested-blob extractor and the heuristic merge segmentor
//  5. assemble segments into displayed and embedded regions
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, name string) (*PageResult, error) {
	start := time.Now()
	log := a.logger.WithPage(name)
	b := img.Bounds()

	pass := time.Now()
	bin := imaging.Binarize(img)
	rects := imaging.Components(bin, a.config.MinComponentPixels)
	blobs := make([]*blob.Blob, 0, len(rects))
	for _, r := range rects {
		blobs = append(blobs, blob.New(model.FromRect(r, b.Dy())))
	}
	idx := grid.Build(model.NewBBox(0, 0, float64(b.Dx()), float64(b.Dy())), blobs)
	log.LogPass(ctx, "components", idx.Len(), time.Since(pass), nil)

	result := &PageResult{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Blobs:  idx.Len(),
	}

	if a.recognizer != nil {
		pass = time.Now()
		stats, err := a.recognize(ctx, img, idx, b.Dy())
		log.LogPass(ctx, "recognition", idx.Len(), time.Since(pass), err)
		if err != nil {
			return nil, err
		}
		result.Recognition = stats
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pass = time.Now()
	fc := a.config.Feature(log.Logger)
	fc.Image = img
	fc.ImageName = name
	set := feature.NewSet(idx, fc)
	if err := set.Use(feature.NestedName); err != nil {
		log.LogPass(ctx, "features", idx.Len(), time.Since(pass), err)
		return nil, err
	}
	log.LogPass(ctx, "features", idx.Len(), time.Since(pass), nil)

	pass = time.Now()
	sc := a.config.Segment(log.Logger)
	stats, err := segment.NewHeuristicMergeWithConfig(sc).RunWithFeatures(set)
	log.LogPass(ctx, "segmentation", idx.Len(), time.Since(pass), err)
	if err != nil {
		return nil, err
	}
	result.Segmentation = stats
	result.Regions = segment.Assemble(idx, sc)

	log.LogPage(ctx, result.Blobs, len(result.Regions), time.Since(start))
	return result, nil
}

func (a *Analyzer) recognize(ctx context.Context, img image.Image, idx blob.Index, height int) (ocr.ApplyStats, error) {
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, img); err != nil {
		return ocr.ApplyStats{}, fmt.Errorf("failed to encode page for recognition: %w", err)
	}
	page, err := a.recognizer.Recognize(ctx, buf.Bytes())
	if err != nil {
		return ocr.ApplyStats{}, fmt.Errorf("recognition failed: %w", err)
	}
	return ocr.Apply(idx, page, height), nil
}

// NewRecognizer returns the Tesseract recognizer configured by c, or nil
// when recognition is disabled. Without OCR support compiled in, it returns
// nil and ocr.ErrOCRNotEnabled so callers can continue without recognition.
func NewRecognizer(c config.Config) (*ocr.Client, error) {
	if !c.OCR.Enabled {
		return nil, nil
	}
	client, err := ocr.New()
	if err != nil {
		return nil, err
	}
	if c.OCR.Language != "" {
		if err := client.SetLanguage(c.OCR.Language); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	return client, nil
}

// IsOCRUnavailable reports whether err means recognition is not compiled in.
func IsOCRUnavailable(err error) bool {
	return errors.Is(err, ocr.ErrOCRNotEnabled)
}
