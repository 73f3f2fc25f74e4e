//go:build !linux && !darwin

package netmon

import "time"

// NewWatcher falls back to polling the interface list.
func NewWatcher() Watcher {
	return newPollWatcher(2 * time.Second)
}
