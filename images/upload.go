package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxWidth is the width uploads are scaled down to.
const MaxWidth = 1600

// Uploader stores hotel and overlay images on local disk and serves them
// under PublicPrefix.
type Uploader struct {
	Dir          string
	PublicPrefix string
}

// Result describes a stored upload. Inline is true when the disk write
// failed and URL is a data: URL instead.
type Result struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Inline bool   `json:"inline"`
}

// Save decodes src, scales it to MaxWidth and writes it as JPEG. When the
// file cannot be written the image is returned as a base64 data URL.
func (u *Uploader) Save(src io.Reader) (*Result, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}
	b := img.Bounds()

	name := uuid.New().String() + ".jpg"
	if err := u.write(img, name); err != nil {
		log.Warn().Err(err).Msg("image upload falling back to inline data url")
		inline, encErr := dataURL(img)
		if encErr != nil {
			return nil, fmt.Errorf("failed to encode image: %w", encErr)
		}
		return &Result{URL: inline, Width: b.Dx(), Height: b.Dy(), Inline: true}, nil
	}

	return &Result{URL: u.PublicPrefix + "/" + name, Width: b.Dx(), Height: b.Dy()}, nil
}

func (u *Uploader) write(img image.Image, name string) error {
	if u.Dir == "" {
		return fmt.Errorf("no upload directory configured")
	}
	if err := os.MkdirAll(u.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return imaging.Save(img, filepath.Join(u.Dir, name), imaging.JPEGQuality(85))
}

func dataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
