package ocr

import (
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// hOCR element classes.
const (
	classWord = "ocrx_word"
	classChar = "ocrx_cinfo"
)

// ParseHOCR reads an hOCR document and returns its words and, when the
// document carries character boxes, its symbols. Words take their box from
// the "bbox" property and their confidence from "x_wconf"; characters use
// "x_bboxes" and "x_conf".
func ParseHOCR(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	page := &Page{}
	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, classWord):
				w, err := parseWord(n)
				if err != nil {
					return err
				}
				page.Words = append(page.Words, w)
			case hasClass(n, classChar):
				s, err := parseSymbol(n)
				if err != nil {
					return err
				}
				page.Symbols = append(page.Symbols, s)
				return nil
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc); err != nil {
		return nil, err
	}
	return page, nil
}

// ReadHOCRFile parses the hOCR document at path.
func ReadHOCRFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	page, err := ParseHOCR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return page, nil
}

func parseWord(n *html.Node) (Word, error) {
	props := titleProps(n)
	box, err := parseBox(props["bbox"])
	if err != nil {
		return Word{}, fmt.Errorf("word %q: %w", attr(n, "id"), err)
	}
	conf, err := parseConfidence(props, "x_wconf")
	if err != nil {
		return Word{}, fmt.Errorf("word %q: %w", attr(n, "id"), err)
	}
	return Word{
		Text:       strings.TrimSpace(textContent(n)),
		Box:        box,
		Confidence: conf,
	}, nil
}

func parseSymbol(n *html.Node) (Symbol, error) {
	props := titleProps(n)
	raw := props["x_bboxes"]
	if raw == "" {
		raw = props["bbox"]
	}
	box, err := parseBox(raw)
	if err != nil {
		return Symbol{}, fmt.Errorf("character: %w", err)
	}
	conf, err := parseConfidence(props, "x_conf")
	if err != nil {
		return Symbol{}, fmt.Errorf("character: %w", err)
	}
	return Symbol{
		Text:       strings.TrimSpace(textContent(n)),
		Box:        box,
		Confidence: conf,
	}, nil
}

// parseConfidence parses a confidence property. An absent property is 0.
func parseConfidence(props map[string]string, key string) (float64, error) {
	raw, ok := props[key]
	if !ok {
		return 0, nil
	}
	conf, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return conf, nil
}

// titleProps splits an hOCR title attribute into its properties, keyed by
// property name.
func titleProps(n *html.Node) map[string]string {
	props := make(map[string]string)
	for _, part := range strings.Split(attr(n, "title"), ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = strings.Join(fields[1:], " ")
	}
	return props
}

// parseBox parses "x0 y0 x1 y1".
func parseBox(s string) (image.Rectangle, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return image.Rectangle{}, fmt.Errorf("invalid bbox %q", s)
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		v[i] = n
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent concatenates the text below n, including the text of nested
// character spans.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
