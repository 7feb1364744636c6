// Command mathfind detects math expression regions in scanned documents.
//
// Usage:
//
//	mathfind detect [flags] input...   analyze images, image directories or PDFs
//	mathfind annotate [flags] image detections.json|regions.rect
//	mathfind serve [flags]             run the HTTP service
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tsawler/mathfind"
	"github.com/tsawler/mathfind/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "detect":
		err = runDetect(ctx, args[1:], stdout, stderr)
	case "annotate":
		err = runAnnotate(args[1:], stderr)
	case "serve":
		err = runServe(ctx, args[1:], stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "mathfind:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage:
  mathfind detect [flags] input...
  mathfind annotate [flags] image detections.json|regions.rect
  mathfind serve [flags]

Run "mathfind <command> -h" for the flags of a command.`)
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	verbose    bool
	jsonLogs   bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&c.verbose, "v", false, "Debug logging")
	fs.BoolVar(&c.jsonLogs, "log-json", false, "Log as JSON")
}

func (c *commonFlags) load() (config.Config, error) {
	return config.Load(c.configPath)
}

func (c *commonFlags) logger(w io.Writer) *mathfind.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.jsonLogs {
		return mathfind.NewJSONLogger(w, level)
	}
	return mathfind.NewTextLogger(w, level)
}
