package display

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// FB_BLANK_UNBLANK in bl_power.
const blPowerOn = "0"

// sysfsWatcher derives screen power from backlight and DRM dpms files. The
// screen counts as on when any source says so, or when no source exists.
type sysfsWatcher struct {
	root     string
	interval time.Duration
	last     *bool
}

func newSysfsWatcher(root string, interval time.Duration) *sysfsWatcher {
	return &sysfsWatcher{root: root, interval: interval}
}

func (w *sysfsWatcher) Start(ctx context.Context, callback func(PowerEvent)) error {
	w.poll(callback)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.poll(callback)
		}
	}
}

func (w *sysfsWatcher) poll(callback func(PowerEvent)) {
	on := w.read()
	if w.last != nil && *w.last == on {
		return
	}
	w.last = &on
	callback(PowerEvent{On: on})
}

func (w *sysfsWatcher) read() bool {
	sources := 0

	backlights, _ := filepath.Glob(filepath.Join(w.root, "class", "backlight", "*", "bl_power"))
	for _, path := range backlights {
		value, ok := readTrimmed(path)
		if !ok {
			continue
		}
		sources++
		if value == blPowerOn {
			return true
		}
	}

	connectors, _ := filepath.Glob(filepath.Join(w.root, "class", "drm", "*", "dpms"))
	for _, path := range connectors {
		// Disconnected connectors always read Off; skip them.
		if status, ok := readTrimmed(filepath.Join(filepath.Dir(path), "status")); ok && status != "connected" {
			continue
		}
		value, ok := readTrimmed(path)
		if !ok {
			continue
		}
		sources++
		if value == "On" {
			return true
		}
	}

	if sources == 0 {
		return true
	}
	return false
}

func readTrimmed(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.WithField("path", path).WithError(err).Trace("Failed to read display state")
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}
