package capture

import (
	"image"
)

// RGBAToBGR writes src into dst (BGR24, dst.Width x dst.Height), dropping
// alpha. Source pixels outside dst are ignored; dst pixels not covered by
// src are painted black so a shrinking display never leaves stale data.
func RGBAToBGR(dst *Frame, src *image.RGBA) {
	if dst == nil || src == nil {
		return
	}
	sb := src.Bounds()
	w := min(dst.Width, sb.Dx())
	h := min(dst.Height, sb.Dy())
	covered := w == dst.Width && h == dst.Height
	if !covered {
		clear(dst.Pix)
	}
	for y := 0; y < h; y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+w*4]
		d := dst.Pix[y*dst.Width*3 : y*dst.Width*3+w*3]
		for i, j := 0, 0; i < len(s); i, j = i+4, j+3 {
			d[j+0] = s[i+2]
			d[j+1] = s[i+1]
			d[j+2] = s[i+0]
		}
	}
}

// RGBA converts the frame back to an opaque *image.RGBA, e.g. for previews.
func (f *Frame) RGBA() *image.RGBA {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	if len(f.Pix) < n*3 {
		return dst
	}
	for i, j := 0, 0; i < n*3; i, j = i+3, j+4 {
		dst.Pix[j+0] = f.Pix[i+2]
		dst.Pix[j+1] = f.Pix[i+1]
		dst.Pix[j+2] = f.Pix[i+0]
		dst.Pix[j+3] = 0xFF
	}
	return dst
}
