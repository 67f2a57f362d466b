package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoVideoStream is returned when ffprobe reports no video stream.
var ErrNoVideoStream = errors.New("ffprobe: no video stream")

// StreamInfo describes a probed video stream.
type StreamInfo struct {
	Width, Height int
	Frames        int // 0 when unknown
}

// FileInfo describes a probed recording.
type FileInfo struct {
	StreamInfo
	Duration time.Duration
}

type probeOutput struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		NbFrames string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDevice reports the native frame size of a capture device.
func ProbeDevice(ctx context.Context, ffprobe, format, device string) (StreamInfo, error) {
	out, err := exec.CommandContext(ctx, ffprobe, DeviceProbeArgs(format, device)...).Output()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("probe %s %s: %w", format, device, exitDetail(err))
	}
	info, err := parseProbe(out)
	if err != nil {
		return StreamInfo{}, err
	}
	return info.StreamInfo, nil
}

// ProbeFile reports duration and frame size of a recorded video file.
func ProbeFile(ctx context.Context, ffprobe, path string) (FileInfo, error) {
	out, err := exec.CommandContext(ctx, ffprobe, FileProbeArgs(path)...).Output()
	if err != nil {
		return FileInfo{}, fmt.Errorf("probe %s: %w", path, exitDetail(err))
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (FileInfo, error) {
	var res probeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return FileInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(res.Streams) == 0 || res.Streams[0].Width <= 0 || res.Streams[0].Height <= 0 {
		return FileInfo{}, ErrNoVideoStream
	}
	s := res.Streams[0]
	info := FileInfo{StreamInfo: StreamInfo{Width: s.Width, Height: s.Height}}
	if n, err := strconv.Atoi(s.NbFrames); err == nil {
		info.Frames = n
	}
	if d := strings.TrimSpace(res.Format.Duration); d != "" {
		if secs, err := strconv.ParseFloat(d, 64); err == nil {
			info.Duration = time.Duration(secs * float64(time.Second))
		}
	}
	return info, nil
}

// exitDetail folds ffprobe's stderr into the error when available.
func exitDetail(err error) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) && len(ee.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(ee.Stderr)))
	}
	return err
}
