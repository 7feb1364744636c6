package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tsawler/mathfind/imaging"
	"github.com/tsawler/mathfind/results"
)

// JPEGQuality is the quality of overlay images.
const JPEGQuality = 90

// ErrUploadTooLarge is returned for request bodies over the configured
// upload limit.
var ErrUploadTooLarge = errors.New("upload too large")

type errorResponse struct {
	ErrorMessage string `json:"error_message"`
}

func (s *Server) handleRunMathFinder(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequest(RequestID(r.Context()))

	name, data, err := s.readFile(w, r, "input")
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}

	img, _, err := imaging.DecodeBytes(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer s.sem.Release(1)

	page, err := s.analyzer.Analyze(r.Context(), img, name)
	if err != nil {
		log.Error("analysis failed", "file", name, "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	dets := results.FromRects(page.Rects())
	dets.AddImage(name)

	log.Info("detections served", "file", name, "regions", len(page.Regions))
	writeJson(w, dets)
}

func (s *Server) handleDisplayDetections(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readFile(w, r, "image")
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}
	img, _, err := imaging.DecodeBytes(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, raw, err := s.readFile(w, r, "detections")
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}
	dets, err := results.ReadJSON(bytes.NewReader(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	overlay := imaging.OverlayWithConfig(img, results.Marks(dets.ForImage(name)), imaging.OverlayConfig{Thickness: 4})

	var buf bytes.Buffer
	if err := imaging.EncodeJPEG(&buf, overlay, JPEGQuality); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(buf.Bytes())
}

// readFile returns the base name and content of a multipart file field.
// The whole request body is limited to MaxUploadMB; larger bodies fail with
// ErrUploadTooLarge.
func (s *Server) readFile(w http.ResponseWriter, r *http.Request, field string) (string, []byte, error) {
	limit := s.config.Server.MaxUploadMB
	maxBytes := int64(limit) << 20
	if r.MultipartForm == nil {
		if r.ContentLength > maxBytes {
			return "", nil, fmt.Errorf("%w: limit is %d MB", ErrUploadTooLarge, limit)
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return "", nil, fmt.Errorf("%w: limit is %d MB", ErrUploadTooLarge, limit)
			}
			return "", nil, fmt.Errorf("invalid multipart form: %w", err)
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("missing %q: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	name := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if name == "." || name == "/" {
		name = field
	}
	return name, data, nil
}

// uploadStatus maps a readFile error to its response status.
func uploadStatus(err error) int {
	if errors.Is(err, ErrUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	json.NewEncoder(w).Encode(errorResponse{ErrorMessage: text})
}
