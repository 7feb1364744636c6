// Package server exposes the detector over HTTP.
//
// Two endpoints are mounted under the configured base path:
//
//	POST /runMathFinder      multipart "input" image -> detection JSON
//	POST /displayDetections  multipart "image" + "detections" -> JPEG overlay
//
// Every request analyzes its own page with its own blob index. A weighted
// semaphore bounds the number of concurrent analyses and an optional token
// bucket limits the request rate.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tsawler/mathfind"
	"github.com/tsawler/mathfind/config"
	"github.com/tsawler/mathfind/ocr"
)

// RequestIDHeader carries the request ID in requests and responses.
const RequestIDHeader = "X-Request-Id"

type contextKey struct{}

// Server is the detection HTTP service.
type Server struct {
	config   config.Config
	analyzer *mathfind.Analyzer
	logger   *mathfind.Logger

	sem     *semaphore.Weighted
	limiter *rate.Limiter
	router  chi.Router
}

// New creates a server. A nil recognizer analyzes without OCR; a nil logger
// discards output.
func New(c config.Config, recognizer ocr.Recognizer, logger *mathfind.Logger) *Server {
	if logger == nil {
		logger = mathfind.NoopLogger()
	}
	s := &Server{
		config:   c,
		analyzer: mathfind.NewAnalyzer(c, recognizer, logger),
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(max(c.Server.MaxConcurrent, 1))),
		limiter:  createLimiter(c.Server.RateLimit),
	}
	s.router = s.routes()
	return s
}

func createLimiter(limit int) *rate.Limiter {
	if limit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(limit), limit)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}))
	r.Use(s.requestID)
	r.Use(s.rateLimit)
	r.Use(compress)

	api := chi.NewRouter()
	api.Post("/runMathFinder", s.handleRunMathFinder)
	api.Post("/displayDetections", s.handleDisplayDetections)
	api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, map[string]string{"status": "ok"})
	})

	base := "/" + strings.Trim(s.config.Server.BasePath, "/")
	r.Mount(base, api)
	return r
}

// compress gzips responses for clients that accept it.
func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr, "base_path", s.config.Server.BasePath)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			if err := s.limiter.Wait(r.Context()); err != nil {
				writeError(w, http.StatusTooManyRequests, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID returns the ID of the request being served by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
