package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/mathfind"
	"github.com/tsawler/mathfind/ocr"
	"github.com/tsawler/mathfind/results"
	"github.com/tsawler/mathfind/server"
)

func runDetect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	rectPath := fs.String("rect", "", "Write regions to this .rect file")
	jsonPath := fs.String("json", "", "Write detections JSON to this file (default: stdout)")
	workers := fs.Int("workers", runtime.NumCPU(), "Pages analyzed concurrently")
	noOCR := fs.Bool("no-ocr", false, "Analyze without text recognition")
	hocrPath := fs.String("hocr", "", "Use recognition results from this hOCR file instead of running OCR (single input)")
	remote := fs.String("server", "", "Detect with a remote service, e.g. http://localhost:9030/api/v1")
	stats := fs.Bool("stats", false, "Print timing and memory statistics")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("detect: no input given")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	logger := common.logger(stderr)

	var hocr *ocr.Page
	if *hocrPath != "" {
		switch {
		case *noOCR:
			return fmt.Errorf("detect: -hocr and -no-ocr are exclusive")
		case *remote != "":
			return fmt.Errorf("detect: -hocr is not supported with -server")
		case fs.NArg() != 1:
			return fmt.Errorf("detect: -hocr needs exactly one input")
		}
		if hocr, err = ocr.ReadHOCRFile(*hocrPath); err != nil {
			return err
		}
	}
	report := newStatsReport(*stats)

	var rects []results.Rect
	if *remote != "" {
		rects, err = detectRemote(ctx, server.NewClient(*remote), fs.Args())
	} else {
		rects, err = detectLocal(ctx, fs.Args(), func(e *mathfind.Extractor) *mathfind.Extractor {
			e = e.Config(cfg).Logger(logger)
			switch {
			case *noOCR:
				e = e.WithoutRecognition()
			case hocr != nil:
				e = e.Recognizer(ocr.PageRecognizer(hocr))
			}
			return e
		}, *workers, logger)
	}
	if err != nil {
		return err
	}

	if *rectPath != "" {
		if err := results.WriteRectFile(*rectPath, rects); err != nil {
			return err
		}
	}

	out := stdout
	if *jsonPath != "" {
		f, err := os.Create(*jsonPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if *jsonPath != "" || *rectPath == "" {
		if err := results.WriteJSON(out, results.FromRects(rects)); err != nil {
			return err
		}
	}

	report.print(stderr, len(rects))
	return nil
}

// detectLocal analyzes every input, concurrently, and returns their rects in
// input order. At most workers pages are analyzed at once: a single input spreads its
// pages over the workers, several inputs run one page at a time each.
func detectLocal(ctx context.Context, inputs []string, configure func(*mathfind.Extractor) *mathfind.Extractor, workers int, logger *mathfind.Logger) ([]results.Rect, error) {
	perInput := make([][]results.Rect, len(inputs))

	workers = max(workers, 1)
	inputLimit, pageWorkers := 1, workers
	if len(inputs) > 1 {
		inputLimit, pageWorkers = workers, 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inputLimit)
	for i, in := range inputs {
		g.Go(func() error {
			result, warnings, err := configure(mathfind.Open(in)).Workers(pageWorkers).DetectContext(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			if len(warnings) > 0 {
				logger.Warn("detection warnings", "input", in, "warnings", mathfind.FormatWarnings(warnings))
			}
			perInput[i] = result.Rects()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rects []results.Rect
	for _, r := range perInput {
		rects = append(rects, r...)
	}
	return rects, nil
}

// detectRemote uploads each input image to a detection service.
func detectRemote(ctx context.Context, client *server.Client, inputs []string) ([]results.Rect, error) {
	var rects []results.Rect
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, err
		}
		dets, err := client.Detect(ctx, fileName(in), data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}
		r, err := dets.Rects()
		if err != nil {
			return nil, err
		}
		rects = append(rects, r...)
	}
	sort.SliceStable(rects, func(i, j int) bool { return rects[i].Image < rects[j].Image })
	return rects, nil
}
