package main

import (
	"context"
	"flag"
	"io"

	"github.com/tsawler/mathfind"
	"github.com/tsawler/mathfind/ocr"
	"github.com/tsawler/mathfind/server"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	host := fs.String("host", "", "Listen host (overrides config and HOST)")
	port := fs.Int("port", 0, "Listen port (overrides config and PORT)")
	basePath := fs.String("base-path", "", "Base path of the endpoints (overrides config and BASEPATH)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *basePath != "" {
		cfg.Server.BasePath = *basePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := common.logger(stderr)

	var recognizer ocr.Recognizer
	client, err := mathfind.NewRecognizer(cfg)
	switch {
	case mathfind.IsOCRUnavailable(err):
		logger.Warn("OCR unavailable, serving without recognition")
	case err != nil:
		return err
	case client != nil:
		defer client.Close()
		recognizer = client
	}

	return server.New(cfg, recognizer, logger).ListenAndServe(ctx)
}
