package artwork

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	xdraw "golang.org/x/image/draw"
)

// DefaultThumbnailSize is the edge length of the extra-large icon size on
// the host platform.
const DefaultThumbnailSize = 151

// Decoder turns an image file into a size x size thumbnail.
type Decoder interface {
	Decode(path string, size int) (image.Image, error)
}

// ThumbnailDecoder decodes PNG, JPEG, GIF and SVG files read from a billy filesystem.
type ThumbnailDecoder struct {
	fs billy.Filesystem
}

func NewThumbnailDecoder(fs billy.Filesystem) *ThumbnailDecoder {
	return &ThumbnailDecoder{fs: fs}
}

// Decode returns the image scaled to fit a transparent size x size square,
// keeping its aspect ratio.
func (d *ThumbnailDecoder) Decode(path string, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}

	data, err := util.ReadFile(d.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if isSVGData(data) {
		thumb, err := renderSVG(data, size)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", path, err)
		}
		return thumb, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image %s has no pixels", path)
	}

	slog.Debug("ThumbnailDecoder: decoded raster image",
		"path", path,
		"format", format,
		"orig_width", b.Dx(),
		"orig_height", b.Dy(),
		"size", size)

	return fitToSquare(img, size), nil
}

func fitToSquare(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	w, h := computeScaledDimensions(b.Dx(), b.Dy(), size, size)
	ox, oy := computeCenterOffset(size, size, w, h)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, image.Rect(ox, oy, ox+w, oy+h), src, b, xdraw.Over, nil)
	return dst
}

func computeScaledDimensions(originalWidth, originalHeight, targetWidth, targetHeight int) (int, int) {
	originalAspect := float64(originalWidth) / float64(originalHeight)
	targetAspect := float64(targetWidth) / float64(targetHeight)

	var w, h int
	if originalAspect > targetAspect {
		w = targetWidth
		h = int(float64(targetWidth) / originalAspect)
	} else {
		h = targetHeight
		w = int(float64(targetHeight) * originalAspect)
	}
	// very thin images still get one pixel row/column
	return max(w, 1), max(h, 1)
}

func computeCenterOffset(targetWidth, targetHeight, scaledWidth, scaledHeight int) (int, int) {
	return (targetWidth - scaledWidth) / 2, (targetHeight - scaledHeight) / 2
}
