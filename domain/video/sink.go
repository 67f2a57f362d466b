// Package video writes captured frames into video files.
package video

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/domain/ffmpeg"
)

var (
	// ErrFrameSize is returned for frames whose size differs from the sink's.
	ErrFrameSize = errors.New("video: frame size mismatch")
	// ErrClosed is returned when writing to a closed sink.
	ErrClosed = errors.New("video: sink closed")
)

// Sink consumes frames of one fixed size.
type Sink interface {
	WriteFrame(f *capture.Frame) error
	Close() error
}

// Params are the encoding parameters shared by every sink of a session.
type Params struct {
	FFmpeg  string
	FPS     int
	Codec   string
	Tag     string
	Quality int
}

// DefaultParams mirror the recorder's fixed output: 10 fps MPEG-4 tagged mp4v.
func DefaultParams() Params {
	return Params{FFmpeg: "ffmpeg", FPS: 10, Codec: "mpeg4", Tag: "mp4v", Quality: 5}
}

// Factory opens a sink for path bound to size.
type Factory func(path string, size image.Point) (Sink, error)

// FFmpegFactory returns a Factory producing ffmpeg-backed sinks.
func FFmpegFactory(p Params, logger *slog.Logger) Factory {
	return func(path string, size image.Point) (Sink, error) {
		return OpenFFmpeg(path, size, p, logger)
	}
}

// FFmpegSink pipes raw BGR24 frames into an ffmpeg encoder.
type FFmpegSink struct {
	mu     sync.Mutex
	proc   *ffmpeg.Process
	path   string
	size   image.Point
	frames int
	closed bool
	logger *slog.Logger
}

// OpenFFmpeg starts an encoder writing path. The frame size is fixed for
// the lifetime of the sink.
func OpenFFmpeg(path string, size image.Point, p Params, logger *slog.Logger) (*FFmpegSink, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrFrameSize, size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	args := ffmpeg.EncodeArgs(ffmpeg.EncodeOptions{
		Width:   size.X,
		Height:  size.Y,
		FPS:     p.FPS,
		Codec:   p.Codec,
		Tag:     p.Tag,
		Quality: p.Quality,
		Output:  path,
	})
	proc, err := ffmpeg.Start(p.FFmpeg, args, true, false)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("encoder started", "path", path, "width", size.X, "height", size.Y, "fps", p.FPS, "codec", p.Codec)
	}
	return &FFmpegSink{proc: proc, path: path, size: size, logger: logger}, nil
}

// Path returns the output file.
func (s *FFmpegSink) Path() string { return s.path }

// Frames returns the number of frames written so far.
func (s *FFmpegSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// WriteFrame appends f to the stream.
func (s *FFmpegSink) WriteFrame(f *capture.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if f.Size() != s.size || len(f.Pix) != s.size.X*s.size.Y*3 {
		return fmt.Errorf("%w: got %v want %v", ErrFrameSize, f.Size(), s.size)
	}
	if _, err := s.proc.Stdin().Write(f.Pix); err != nil {
		return fmt.Errorf("write frame to encoder: %w", err)
	}
	s.frames++
	return nil
}

// Close ends the input and waits for the encoder to finalize the file.
func (s *FFmpegSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.proc.Close()
	if s.logger != nil {
		s.logger.Debug("encoder finished", "path", s.path, "frames", s.frames, "error", err)
	}
	if err != nil {
		return fmt.Errorf("finalize %s: %w", s.path, err)
	}
	return nil
}
