//go:build linux

package display

import (
	"time"
)

// NewWatcher polls the kernel's backlight and DRM connector state.
func NewWatcher(interval time.Duration) Watcher {
	return newSysfsWatcher("/sys", interval)
}
