package video

import (
	"fmt"
	"image"
	"sync"

	"github.com/soocke/productivity-recorder/domain/capture"
)

// MemorySink keeps frame sequence numbers in memory. It backs dry runs and
// tests where no encoder is available.
type MemorySink struct {
	mu     sync.Mutex
	size   image.Point
	seqs   []uint64
	closed bool
}

// MemoryFactory returns a Factory of MemorySinks, recording every sink it
// opens keyed by path.
func MemoryFactory(opened map[string]*MemorySink, mu *sync.Mutex) Factory {
	return func(path string, size image.Point) (Sink, error) {
		s := &MemorySink{size: size}
		if opened != nil {
			if mu != nil {
				mu.Lock()
				defer mu.Unlock()
			}
			opened[path] = s
		}
		return s, nil
	}
}

// NewMemorySink returns a sink bound to size.
func NewMemorySink(size image.Point) *MemorySink { return &MemorySink{size: size} }

// WriteFrame implements Sink.
func (s *MemorySink) WriteFrame(f *capture.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if f.Size() != s.size {
		return fmt.Errorf("%w: got %v want %v", ErrFrameSize, f.Size(), s.size)
	}
	s.seqs = append(s.seqs, f.Sequence)
	return nil
}

// Close implements Sink.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frames returns the number of frames written.
func (s *MemorySink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seqs)
}

// Closed reports whether Close was called.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
