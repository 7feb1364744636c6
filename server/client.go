package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/tsawler/mathfind/results"
)

// Client calls a remote detection service.
type Client struct {
	// BaseURL includes the base path, e.g. "http://localhost:9030/api/v1"
	BaseURL string

	HTTPClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
	}
}

// Detect uploads a page image and returns its detections.
func (c *Client) Detect(ctx context.Context, name string, image []byte) (*results.Detections, error) {
	body, contentType, err := multipartBody(
		part{field: "input", name: name, contentType: imageContentType(name), data: image},
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/runMathFinder", contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return results.ReadJSON(resp.Body)
}

// Display uploads a page image with detections and returns the JPEG
// overlay.
func (c *Client) Display(ctx context.Context, name string, image []byte, dets *results.Detections) ([]byte, error) {
	var raw bytes.Buffer
	if err := results.WriteJSON(&raw, dets); err != nil {
		return nil, err
	}

	body, contentType, err := multipartBody(
		part{field: "image", name: name, contentType: imageContentType(name), data: image},
		part{field: "detections", name: "detections.json", contentType: "application/json", data: raw.Bytes()},
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/displayDetections", contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()

		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.ErrorMessage != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, e.ErrorMessage)
		}
		return nil, fmt.Errorf("%s", resp.Status)
	}
	return resp, nil
}

type part struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartBody(parts ...part) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.name))
		h.Set("Content-Type", p.contentType)

		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func imageContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".gif":
		return "image/gif"
	}
	return "application/octet-stream"
}
