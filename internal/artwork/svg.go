package artwork

import (
	"bytes"
	"fmt"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// isSVGData looks for an svg tag or the SVG namespace in the first 4KB.
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	n := min(len(data), 4096)
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte(`xmlns="http://www.w3.org/2000/svg"`)) ||
		bytes.Contains(header, []byte(`xmlns='http://www.w3.org/2000/svg'`))
}

// renderSVG rasterises the icon into a transparent size x size canvas,
// fitting its viewBox while keeping the aspect ratio.
func renderSVG(svgData []byte, size int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	w, h := size, size
	if icon.ViewBox.W >= 1 && icon.ViewBox.H >= 1 {
		w, h = computeScaledDimensions(int(icon.ViewBox.W+0.5), int(icon.ViewBox.H+0.5), size, size)
	}
	ox, oy := computeCenterOffset(size, size, w, h)
	icon.SetTarget(float64(ox), float64(oy), float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, dst, dst.Bounds())
	dasher := rasterx.NewDasher(size, size, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}
