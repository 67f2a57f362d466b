//go:build windows

package capture

// Virtual desktop bounds on Windows. The screenshot backend only reports the
// primary monitor, so the bounding box of every monitor is read from the
// SM_*VIRTUALSCREEN system metrics instead.

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/sys/windows"
)

// Win32 constants
const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
)

var dpiAwareOnce sync.Once

// prepareDisplay opts the process into DPI awareness so metrics and grabs
// are in physical pixels rather than scaled ones.
func prepareDisplay() {
	dpiAwareOnce.Do(func() {
		if procSetProcessDPIAware.Find() == nil {
			_, _, _ = procSetProcessDPIAware.Call()
		}
	})
}

// VirtualDesktop returns the bounding box of all monitors.
func VirtualDesktop() (image.Rectangle, error) {
	x := int(getSystemMetric(smXVirtualScreen))
	y := int(getSystemMetric(smYVirtualScreen))
	w := int(getSystemMetric(smCxVirtualScreen))
	h := int(getSystemMetric(smCyVirtualScreen))
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("capture: invalid virtual screen x=%d y=%d w=%d h=%d", x, y, w, h)
	}
	return image.Rect(x, y, x+w, y+h), nil
}

func getSystemMetric(idx int) int32 {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return int32(v)
}
