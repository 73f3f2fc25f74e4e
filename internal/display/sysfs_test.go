package display

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSysfsWatcher_NoSourcesIsOn(t *testing.T) {
	w := newSysfsWatcher(t.TempDir(), 0)
	assert.True(t, w.read())
}

func TestSysfsWatcher_Backlight(t *testing.T) {
	root := t.TempDir()
	blPower := filepath.Join(root, "class", "backlight", "intel_backlight", "bl_power")

	writeFile(t, blPower, "4\n")
	w := newSysfsWatcher(root, 0)
	assert.False(t, w.read())

	writeFile(t, blPower, "0\n")
	assert.True(t, w.read())
}

func TestSysfsWatcher_DrmSkipsDisconnectedConnectors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "class", "drm", "card0-HDMI-A-1", "status"), "disconnected\n")
	writeFile(t, filepath.Join(root, "class", "drm", "card0-HDMI-A-1", "dpms"), "Off\n")
	writeFile(t, filepath.Join(root, "class", "drm", "card0-eDP-1", "status"), "connected\n")
	writeFile(t, filepath.Join(root, "class", "drm", "card0-eDP-1", "dpms"), "Off\n")

	w := newSysfsWatcher(root, 0)
	assert.False(t, w.read())

	writeFile(t, filepath.Join(root, "class", "drm", "card0-eDP-1", "dpms"), "On\n")
	assert.True(t, w.read())
}

func TestSysfsWatcher_PollReportsChangesOnly(t *testing.T) {
	root := t.TempDir()
	blPower := filepath.Join(root, "class", "backlight", "acpi_video0", "bl_power")
	writeFile(t, blPower, "0")

	w := newSysfsWatcher(root, 0)
	var events []PowerEvent
	record := func(ev PowerEvent) { events = append(events, ev) }

	w.poll(record)
	w.poll(record)
	writeFile(t, blPower, "4")
	w.poll(record)

	assert.Equal(t, []PowerEvent{{On: true}, {On: false}}, events)
}
