package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/mathfind/imaging"
	"github.com/tsawler/mathfind/model"
	"github.com/tsawler/mathfind/results"
)

func runAnnotate(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	output := fs.String("o", "", "Output image, .png or .jpg (default: <image>.detections.jpg)")
	thickness := fs.Int("thickness", 4, "Outline width in pixels")
	labels := fs.Bool("labels", false, "Label each region with its kind")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("annotate: expected an image and a detections file (.json or .rect)")
	}
	imagePath, detsPath := fs.Arg(0), fs.Arg(1)

	img, err := imaging.DecodeFile(imagePath)
	if err != nil {
		return err
	}

	dets, err := results.ReadFile(detsPath)
	if err != nil {
		return err
	}

	marks := results.Marks(dets.ForImage(fileName(imagePath)))
	if *labels {
		for i, det := range dets.ForImage(fileName(imagePath)) {
			marks[i].Label = model.RegionKind(det.CategoryID).String()
		}
	}
	overlay := imaging.OverlayWithConfig(img, marks, imaging.OverlayConfig{Thickness: *thickness})

	out := *output
	if out == "" {
		out = strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".detections.jpg"
	}
	w, err := os.Create(out)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".png":
		err = imaging.EncodePNG(w, overlay)
	default:
		err = imaging.EncodeJPEG(w, overlay, 90)
	}
	if err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func fileName(path string) string {
	return filepath.Base(path)
}
