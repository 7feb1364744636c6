package ocr

import (
	"unicode"

	"github.com/tsawler/mathfind/blob"
	"github.com/tsawler/mathfind/model"
)

// ApplyStats counts what Apply changed.
type ApplyStats struct {
	// Words is the number of words that covered at least one blob
	Words int

	// Symbols is the number of symbols that covered at least one blob
	Symbols int

	// InWord is the number of blobs marked as belonging to a recognized word
	InWord int
}

// Apply copies recognition results onto the blobs of idx. A blob takes the
// certainty of every word and symbol whose box contains its centre, keeping
// the highest; it belongs to a recognized word when such a word looks like
// dictionary text, and takes the text of its most certain symbol.
// imageHeight converts the raster boxes of page into document coordinates.
func Apply(idx blob.Index, page *Page, imageHeight int) ApplyStats {
	var stats ApplyStats
	if page == nil {
		return stats
	}

	for _, w := range page.Words {
		box := model.FromRect(w.Box, imageHeight)
		certainty := blob.CertaintyFromPercent(w.Confidence)
		dictionary := IsDictionaryWord(w.Text)

		hit := false
		for b := range idx.Search(box) {
			if !box.Contains(b.BBox.Center()) {
				continue
			}
			hit = true
			if certainty > b.WordConfidence {
				b.WordConfidence = certainty
			}
			if dictionary && !b.InWord {
				b.InWord = true
				stats.InWord++
			}
		}
		if hit {
			stats.Words++
		}
	}

	for _, s := range page.Symbols {
		box := model.FromRect(s.Box, imageHeight)
		certainty := blob.CertaintyFromPercent(s.Confidence)

		hit := false
		for b := range idx.Search(box) {
			if !box.Contains(b.BBox.Center()) {
				continue
			}
			hit = true
			if certainty > b.CharConfidence || b.Text == "" {
				if certainty > b.CharConfidence {
					b.CharConfidence = certainty
				}
				b.Text = s.Text
			}
		}
		if hit {
			stats.Symbols++
		}
	}
	return stats
}

// IsDictionaryWord reports whether text looks like an ordinary word: at
// least two characters, all of them letters, apostrophes or hyphens, with at
// least two letters.
func IsDictionaryWord(text string) bool {
	letters := 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == '\'' || r == '-' || r == '’':
		default:
			return false
		}
	}
	return letters >= 2
}
