package cli

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("trafficd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParse_Defaults(t *testing.T) {
	cfg, showVersion, err := parse(newFlagSet(), nil)
	require.NoError(t, err)

	assert.False(t, showVersion)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 60106, cfg.Port)
	assert.Equal(t, "wlan0", cfg.Interface)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.DisplayPollInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Verbose)
	assert.False(t, cfg.Advertise)
}

func TestParse_Overrides(t *testing.T) {
	cfg, showVersion, err := parse(newFlagSet(), []string{
		"-interface", "eth0",
		"-poll-interval", "250ms",
		"-verbose", "2",
		"-advertise",
		"-version",
	})
	require.NoError(t, err)

	assert.True(t, showVersion)
	assert.Equal(t, "eth0", cfg.Interface)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2, cfg.Verbose)
	assert.True(t, cfg.Advertise)
	assert.Contains(t, cfg.String(), "Interface: eth0")
}

func TestParse_Invalid(t *testing.T) {
	for _, args := range [][]string{
		{"-interface", ""},
		{"-poll-interval", "0s"},
		{"-display-poll-interval", "-1s"},
		{"-port", "not-a-port"},
	} {
		_, _, err := parse(newFlagSet(), args)
		assert.Error(t, err, "args %v", args)
	}
}
