package view

import (
	"image"

	"github.com/soocke/productivity-recorder/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows a downscaled copy of the screen being recorded.
type CapturePreview interface {
	Update(img image.Image)
	Reset()
}

type capturePreview struct {
	label     *LabelWidget
	prevPhoto *Img // last Tk photo image, deleted before it is replaced
}

const (
	// Max preview dimensions; the presenter scales frames to fit.
	maxPreviewW = 400
	maxPreviewH = 225
)

// NewCapturePreview creates the preview label spanning the form columns of row.
func NewCapturePreview(row int) CapturePreview {
	photo := NewPhoto(Data(placeholderPNG()))
	label := Label(Image(photo), Borderwidth(1), Relief("sunken"))
	Grid(label, Row(row), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return &capturePreview{label: label, prevPhoto: photo}
}

func placeholderPNG() []byte {
	return images.EncodePNG(image.NewRGBA(image.Rect(0, 0, maxPreviewW, maxPreviewH)))
}

func (v *capturePreview) Update(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	v.replace(images.EncodePNG(img))
}

func (v *capturePreview) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.replace(placeholderPNG())
}

func (v *capturePreview) replace(pngBytes []byte) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(pngBytes))
	v.label.Configure(Image(v.prevPhoto))
}
