//go:build !linux

package display

import "time"

// NewWatcher has no power source to read on this platform; the screen is
// assumed on.
func NewWatcher(_ time.Duration) Watcher {
	return staticWatcher{}
}
