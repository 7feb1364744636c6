package results

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mathfind/imaging"
	"github.com/tsawler/mathfind/model"
)

func sampleRects() []Rect {
	return []Rect{
		{Image: "b.png", Kind: model.RegionDisplayed, Box: image.Rect(10, 20, 30, 40)},
		{Image: "a.png", Kind: model.RegionEmbedded, Box: image.Rect(0, 0, 5, 6)},
		{Image: "b.png", Kind: model.RegionEmbedded, Box: image.Rect(50, 60, 70, 65)},
	}
}

func TestFromRegions(t *testing.T) {
	regions := []model.Region{
		{Kind: model.RegionEmbedded, BBox: model.NewBBox(10, 60, 20, 20), Members: 2},
		{Kind: model.RegionDisplayed, BBox: model.NewBBox(0.5, 0, 9, 9.5), Members: 3},
	}

	rects := FromRegions("page.png", regions, 100)
	require.Len(t, rects, 2)
	assert.Equal(t, Rect{Image: "page.png", Kind: model.RegionEmbedded, Box: image.Rect(10, 20, 30, 40)}, rects[0])
	assert.Equal(t, image.Rect(0, 90, 10, 100), rects[1].Box)
}

func TestWriteRects(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRects(&buf, sampleRects()))
	assert.Equal(t,
		"b.png displayed 10 20 30 40\na.png embedded 0 0 5 6\nb.png embedded 50 60 70 65\n",
		buf.String())
}

func TestWriteRectsRejectsWhitespace(t *testing.T) {
	err := WriteRects(&bytes.Buffer{}, []Rect{{Image: "my page.png"}})
	require.Error(t, err)
}

func TestRectFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.rect")
	require.NoError(t, WriteRectFile(path, sampleRects()))

	got, err := ReadRectFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRects(), got)
}

func TestReadRectsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "a.png displayed 1 2 3\n"},
		{"unknown label", "a.png inline 1 2 3 4\n"},
		{"bad coordinate", "a.png displayed 1 2 x 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRects(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestReadRectsSkipsBlankLines(t *testing.T) {
	rects, err := ReadRects(strings.NewReader("\n  \na.png embedded 1 2 3 4\n\n"))
	require.NoError(t, err)
	require.Len(t, rects, 1)
	assert.Equal(t, image.Rect(1, 2, 3, 4), rects[0].Box)
}

func TestFromRects(t *testing.T) {
	d := FromRects(sampleRects())

	assert.Equal(t, []ImageInfo{{ID: 0, FileName: "a.png"}, {ID: 1, FileName: "b.png"}}, d.Images)
	assert.Equal(t, []Category{{ID: 0, Name: "displayed"}, {ID: 1, Name: "embedded"}}, d.Categories)
	require.Len(t, d.Detections, 3)
	assert.Equal(t, Detection{ImageID: 1, CategoryID: 0, BBox: [4]int{10, 20, 20, 20}, Score: 1}, d.Detections[0])
	assert.Equal(t, 0, d.Detections[1].ImageID)
	assert.Equal(t, 1, d.Detections[1].CategoryID)

	rects, err := d.Rects()
	require.NoError(t, err)
	assert.Equal(t, sampleRects(), rects)
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, FromRects(sampleRects())))
	assert.Contains(t, buf.String(), `"file_name": "a.png"`)
	assert.Contains(t, buf.String(), `"category_id": 1`)

	d, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, FromRects(sampleRects()), d)
}

func TestReadJSONInvalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{"))
	require.Error(t, err)
}

func TestAddImage(t *testing.T) {
	d := FromRects(nil)
	assert.Equal(t, 0, d.AddImage("blank.png"))
	assert.Equal(t, 0, d.AddImage("blank.png"))
	assert.Equal(t, 1, d.AddImage("other.png"))
	assert.Empty(t, d.Detections)
}

func TestRectsUnknownImage(t *testing.T) {
	d := &Detections{Detections: []Detection{{ImageID: 4}}}
	_, err := d.Rects()
	require.Error(t, err)
}

func TestForImageAndMarks(t *testing.T) {
	d := FromRects(sampleRects())

	dets := d.ForImage("b.png")
	require.Len(t, dets, 2)
	assert.Empty(t, d.ForImage("missing.png"))

	marks := Marks(dets)
	require.Len(t, marks, 2)
	assert.Equal(t, image.Rect(10, 20, 30, 40), marks[0].Rect)
	assert.Equal(t, imaging.Red, marks[0].Color)
	assert.Equal(t, imaging.Blue, marks[1].Color)

	single := FromRects(sampleRects()[1:2])
	assert.Len(t, single.ForImage("upload.png"), 1)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	rects := []Rect{
		{Image: "b.png", Kind: model.RegionEmbedded, Box: image.Rect(1, 2, 5, 8)},
		{Image: "a.png", Kind: model.RegionDisplayed, Box: image.Rect(10, 40, 28, 50)},
	}

	rectPath := filepath.Join(dir, "regions.RECT")
	require.NoError(t, WriteRectFile(rectPath, rects))

	fromRect, err := ReadFile(rectPath)
	require.NoError(t, err)
	assert.Equal(t, FromRects(rects), fromRect)

	jsonPath := filepath.Join(dir, "detections.json")
	f, err := os.Create(jsonPath)
	require.NoError(t, err)
	require.NoError(t, WriteJSON(f, FromRects(rects)))
	require.NoError(t, f.Close())

	fromJSON, err := ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, fromRect, fromJSON)

	_, err = ReadFile(filepath.Join(dir, "missing.rect"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.rect")
	require.NoError(t, os.WriteFile(bad, []byte("a.png displayed 1 2\n"), 0o644))
	_, err = ReadFile(bad)
	assert.Error(t, err)
}
