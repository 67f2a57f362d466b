//go:build !windows

package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

func prepareDisplay() {}

// VirtualDesktop returns the bounding box of all monitors. On X11 the root
// window already spans every monitor.
func VirtualDesktop() (image.Rectangle, error) {
	return screenshot.ScreenRect()
}
