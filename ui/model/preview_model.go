package model

import (
	"image"
	"sync/atomic"
)

// PreviewModel holds the latest preview image and its frame sequence. The
// zero value holds nothing and is usable.
type PreviewModel struct {
	img atomic.Pointer[image.RGBA]
	seq atomic.Uint64
}

// Set stores img for seq and reports whether it is newer than the stored one.
func (m *PreviewModel) Set(img *image.RGBA, seq uint64) bool {
	if m == nil || img == nil {
		return false
	}
	if prev := m.seq.Load(); seq != 0 && seq == prev {
		return false
	}
	m.img.Store(img)
	m.seq.Store(seq)
	return true
}

// Sequence returns the sequence of the stored image.
func (m *PreviewModel) Sequence() uint64 {
	if m == nil {
		return 0
	}
	return m.seq.Load()
}

// Image returns the stored image, or nil.
func (m *PreviewModel) Image() *image.RGBA {
	if m == nil {
		return nil
	}
	return m.img.Load()
}

// Clear drops the stored image.
func (m *PreviewModel) Clear() {
	if m == nil {
		return
	}
	m.img.Store(nil)
	m.seq.Store(0)
}
