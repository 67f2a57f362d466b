package video

import (
	"context"
	"os"

	"github.com/soocke/productivity-recorder/domain/ffmpeg"
)

// FileInfo describes a recorded video file on disk.
type FileInfo struct {
	Path  string
	Size  int64
	Probe ffmpeg.FileInfo
	// ProbeErr is set when ffprobe could not read the file, e.g. a recording
	// stopped before its first frame.
	ProbeErr error
}

// Inspect stats path and probes it with ffprobe. Only a stat failure is
// returned as an error.
func Inspect(ctx context.Context, ffprobe, path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	info := FileInfo{Path: path, Size: st.Size()}
	if st.Size() == 0 {
		return info, nil
	}
	info.Probe, info.ProbeErr = ffmpeg.ProbeFile(ctx, ffprobe, path)
	return info, nil
}
