package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRenderable(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/h/room.jpg":        true,
		"http://example.com/a/b/photo.JPEG?w=200":   true,
		"https://example.com/pic.webp":              true,
		"data:image/png;base64,iVBORw0KGgo=":        true,
		"https://example.com/page.html":             false,
		"https://example.com/noext":                 false,
		"ftp://example.com/a.png":                   false,
		"/relative/a.png":                           false,
		"not a url":                                 false,
		"":                                          false,
		"data:text/plain;base64,aGVsbG8=":           false,
		"javascript:alert(1)//.png":                 false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsRenderable(in), in)
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	got := Filter([]string{"https://a.com/1.png", "broken", "https://a.com/2.jpg"})
	assert.Equal(t, []string{"https://a.com/1.png", "https://a.com/2.jpg"}, got)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploaderWritesAndScales(t *testing.T) {
	dir := t.TempDir()
	u := &Uploader{Dir: dir, PublicPrefix: "/static/uploads"}

	res, err := u.Save(bytes.NewReader(pngBytes(t, MaxWidth+400, 100)))
	require.NoError(t, err)
	assert.False(t, res.Inline)
	assert.Equal(t, MaxWidth, res.Width)
	assert.True(t, strings.HasPrefix(res.URL, "/static/uploads/"))

	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(res.URL, "/static/uploads/")))
	assert.NoError(t, err)
}

func TestUploaderFallsBackToDataURL(t *testing.T) {
	u := &Uploader{}
	res, err := u.Save(bytes.NewReader(pngBytes(t, 20, 10)))
	require.NoError(t, err)
	assert.True(t, res.Inline)
	assert.True(t, IsRenderable(res.URL))
}

func TestUploaderRejectsGarbage(t *testing.T) {
	u := &Uploader{Dir: t.TempDir()}
	_, err := u.Save(strings.NewReader("definitely not an image"))
	assert.Error(t, err)
}
