package presenter

import (
	"image"
	"sync"
	"time"

	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/ui/images"
	"github.com/soocke/productivity-recorder/ui/model"
)

// FrameSource supplies a copy of the latest frame written for a stream.
type FrameSource interface {
	Preview(stream string) *capture.Frame
}

// PreviewView describes the UI surface updated by the presenter.
type PreviewView interface {
	UpdatePreview(img image.Image)
	PreviewReset()
}

type previewResult struct {
	img *image.RGBA
	seq uint64
}

// PreviewPresenter shows a downscaled copy of the recorded screen. Color
// conversion and scaling run on a worker goroutine so ticks stay cheap.
type PreviewPresenter struct {
	Source FrameSource
	State  RecordingModel
	Model  *model.PreviewModel
	View   PreviewView
	Stream string
	MaxW   int
	MaxH   int

	workerOnce sync.Once
	workCh     chan *capture.Frame
	resultCh   chan previewResult
	lastSeq    uint64
	showing    bool
	closed     bool
}

// NewPreviewPresenter constructs a preview presenter for stream.
func NewPreviewPresenter(source FrameSource, state RecordingModel, m *model.PreviewModel, view PreviewView, stream string, maxW, maxH int) *PreviewPresenter {
	return &PreviewPresenter{
		Source:   source,
		State:    state,
		Model:    m,
		View:     view,
		Stream:   stream,
		MaxW:     maxW,
		MaxH:     maxH,
		workCh:   make(chan *capture.Frame, 1),
		resultCh: make(chan previewResult, 1),
	}
}

// Tick shows finished conversions and dispatches the newest frame.
func (p *PreviewPresenter) Tick(now time.Time) {
	if p == nil || p.closed || p.Source == nil || p.State == nil || p.View == nil {
		return
	}
	p.ensureWorker()

	select {
	case res := <-p.resultCh:
		if p.Model.Set(res.img, res.seq) && p.State.Recording() {
			p.View.UpdatePreview(res.img)
			p.showing = true
		}
	default:
	}

	if !p.State.Recording() {
		if p.showing {
			p.View.PreviewReset()
			p.Model.Clear()
			p.showing = false
		}
		return
	}

	f := p.Source.Preview(p.Stream)
	if f == nil || f.Sequence == p.lastSeq {
		return
	}
	select {
	case p.workCh <- f:
		p.lastSeq = f.Sequence
	default: // worker busy; a newer frame will come
	}
}

func (p *PreviewPresenter) ensureWorker() {
	p.workerOnce.Do(func() {
		go p.runWorker()
	})
}

func (p *PreviewPresenter) runWorker() {
	for f := range p.workCh {
		img := f.RGBA()
		if img == nil {
			continue
		}
		scaled := images.ScaleToFit(img, p.MaxW, p.MaxH)
		res := previewResult{img: scaled, seq: f.Sequence}
		select {
		case p.resultCh <- res:
		default:
			select {
			case <-p.resultCh:
			default:
			}
			select {
			case p.resultCh <- res:
			default:
			}
		}
	}
}

// Close stops the worker goroutine. Call from the same goroutine as Tick.
func (p *PreviewPresenter) Close() {
	if p == nil || p.closed || p.workCh == nil {
		return
	}
	p.closed = true
	p.workerOnce.Do(func() {})
	close(p.workCh)
}
