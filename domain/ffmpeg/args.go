// Package ffmpeg builds command lines for and talks to the ffmpeg/ffprobe
// binaries used to read webcam devices and encode recordings.
package ffmpeg

import (
	"fmt"
	"strconv"
)

// PixelFormat is the raw pixel layout exchanged over pipes.
const PixelFormat = "bgr24"

// EncodeOptions describes a raw-frames-on-stdin to video-file encode.
type EncodeOptions struct {
	Width, Height int
	FPS           int
	Codec         string // e.g. "mpeg4"
	Tag           string // fourcc, e.g. "mp4v"; empty keeps the encoder default
	Quality       int    // -q:v; <=0 omits the flag
	Output        string
}

// EncodeArgs returns the ffmpeg arguments for opts. Odd dimensions are
// trimmed to even by a scale filter because yuv420p requires it.
func EncodeArgs(opts EncodeOptions) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", PixelFormat,
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", strconv.Itoa(opts.FPS),
		"-i", "pipe:0",
		"-an",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", opts.Codec,
	}
	if opts.Tag != "" {
		args = append(args, "-vtag", opts.Tag)
	}
	if opts.Quality > 0 {
		args = append(args, "-q:v", strconv.Itoa(opts.Quality))
	}
	return append(args, opts.Output)
}

// DeviceArgs returns the ffmpeg arguments that stream a capture device as
// raw frames on stdout at fps.
func DeviceArgs(format, device string, fps int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", format,
		"-i", device,
		"-an",
		"-r", strconv.Itoa(fps),
		"-f", "rawvideo",
		"-pix_fmt", PixelFormat,
		"pipe:1",
	}
}

// DeviceProbeArgs returns ffprobe arguments that report the first video
// stream of a capture device as JSON.
func DeviceProbeArgs(format, device string) []string {
	return []string{
		"-v", "error",
		"-f", format,
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		device,
	}
}

// FileProbeArgs returns ffprobe arguments that report duration and frame
// size of a recorded file as JSON.
func FileProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=width,height,nb_frames",
		"-of", "json",
		path,
	}
}
