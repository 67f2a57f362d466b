package images

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// FitSize returns the largest size with w:h aspect that fits within maxW x maxH,
// never upscaling and never below 1x1.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	maxW, maxH = max(maxW, 1), max(maxH, 1)
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(int(float64(w)*ratio+0.5), 1), max(int(float64(h)*ratio+0.5), 1)
}

// ScaleToFit scales src bilinearly so that it fits within maxW x maxH preserving
// aspect ratio. An *image.RGBA that already fits is returned as is.
func ScaleToFit(src image.Image, maxW, maxH int) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	if w == 0 {
		return nil
	}
	if rgba, ok := src.(*image.RGBA); ok && w == b.Dx() && h == b.Dy() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
