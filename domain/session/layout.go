package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soocke/productivity-recorder/config"
)

// DirStampLayout keys output folders and flat file names.
const DirStampLayout = "2006-01-02_15-04-05"

const (
	screenFile = "screen.mp4"
	webcamFile = "webcam.mp4"
	dirPrefix  = "task_"
)

// Paths are the files of one session. MetadataPath is empty in the flat layout.
type Paths struct {
	Dir          string
	ScreenPath   string
	WebcamPath   string
	MetadataPath string
}

// PlanPaths creates the output location for a session started at ts and
// returns its file paths. In the session layout a taken folder name gets a
// -N suffix; in the flat layout files are placed directly under root.
func PlanPaths(root, layout string, ts time.Time) (Paths, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output root: %w", err)
	}
	stamp := ts.Format(DirStampLayout)
	if layout == config.LayoutFlat {
		return planFlat(root, stamp), nil
	}
	base := filepath.Join(root, dirPrefix+stamp)
	for n := 1; n < 1000; n++ {
		dir := base
		if n > 1 {
			dir = base + "-" + strconv.Itoa(n)
		}
		err := os.Mkdir(dir, 0o755)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return Paths{}, fmt.Errorf("create session dir: %w", err)
		}
		return Paths{
			Dir:          dir,
			ScreenPath:   filepath.Join(dir, screenFile),
			WebcamPath:   filepath.Join(dir, webcamFile),
			MetadataPath: filepath.Join(dir, MetadataFile),
		}, nil
	}
	return Paths{}, fmt.Errorf("create session dir: no free name for %s", base)
}

func planFlat(root, stamp string) Paths {
	p := Paths{Dir: root}
	for n := 1; ; n++ {
		suffix := stamp
		if n > 1 {
			suffix += "-" + strconv.Itoa(n)
		}
		p.ScreenPath = filepath.Join(root, "screen_"+suffix+".mp4")
		p.WebcamPath = filepath.Join(root, "webcam_"+suffix+".mp4")
		if !exists(p.ScreenPath) && !exists(p.WebcamPath) {
			return p
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
