package images

import (
	"image"
	"image/color"
	"testing"
)

func TestFitSize(t *testing.T) {
	cases := []struct{ w, h, maxW, maxH, wantW, wantH int }{
		{3840, 1080, 400, 225, 400, 113},
		{100, 50, 400, 225, 100, 50},
		{1080, 1920, 400, 225, 127, 225},
		{10, 10, 0, 0, 1, 1},
		{0, 10, 400, 225, 0, 0},
	}
	for _, c := range cases {
		w, h := FitSize(c.w, c.h, c.maxW, c.maxH)
		if w != c.wantW || h != c.wantH {
			t.Fatalf("FitSize(%d,%d,%d,%d) = %dx%d, want %dx%d", c.w, c.h, c.maxW, c.maxH, w, h, c.wantW, c.wantH)
		}
	}
}

func TestScaleToFit_PreservesColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 200, 100, 50, 255
	}
	dst := ScaleToFit(src, 400, 225)
	if dst.Bounds().Dx() != 400 || dst.Bounds().Dy() != 200 {
		t.Fatalf("unexpected bounds %v", dst.Bounds())
	}
	if got := dst.RGBAAt(10, 10); got != (color.RGBA{200, 100, 50, 255}) {
		t.Fatalf("color changed: %v", got)
	}
	if same := ScaleToFit(dst, 400, 225); same != dst {
		t.Fatal("fitting RGBA must be returned as is")
	}
	if len(EncodePNG(dst)) == 0 {
		t.Fatal("png encoding failed")
	}
}
