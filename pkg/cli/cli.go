package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmdmdm-nz/trafficd/pkg/version"
)

// Config holds the application configuration from CLI flags
type Config struct {
	Port                int
	Host                string
	Interface           string
	PollInterval        time.Duration
	DisplayPollInterval time.Duration
	LogLevel            string
	Verbose             int
	Advertise           bool
}

// ParseFlags parses command line arguments and returns a Config
func ParseFlags() *Config {
	cfg, showVersion, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if showVersion {
		fmt.Printf("trafficd version %s (commit: %s, built at: %s, protocol: %s)\n",
			version.Version,
			version.CommitHash,
			version.BuildTime,
			version.Protocol)
		os.Exit(0)
	}

	return cfg
}

func parse(fs *flag.FlagSet, args []string) (*Config, bool, error) {
	cfg := &Config{}

	fs.IntVar(&cfg.Port, "port", 60106, "Port to listen on")
	fs.StringVar(&cfg.Host, "host", "127.0.0.1", "Host to bind to")
	fs.StringVar(&cfg.Interface, "interface", "wlan0", "Network interface to monitor")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", time.Second, "Interval between packet counter samples")
	fs.DurationVar(&cfg.DisplayPollInterval, "display-poll-interval", 2*time.Second, "Interval between screen power checks")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.IntVar(&cfg.Verbose, "verbose", 0, "Traffic poller verbosity (0 off, 1 directives, 2 every sample)")
	fs.BoolVar(&cfg.Advertise, "advertise", false, "Advertise the API over mDNS")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	if cfg.Interface == "" {
		return nil, false, fmt.Errorf("-interface must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, false, fmt.Errorf("-poll-interval must be positive, got %s", cfg.PollInterval)
	}
	if cfg.DisplayPollInterval <= 0 {
		return nil, false, fmt.Errorf("-display-poll-interval must be positive, got %s", cfg.DisplayPollInterval)
	}

	return cfg, *showVersion, nil
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Host: %s, Port: %d, Interface: %s, PollInterval: %s, DisplayPollInterval: %s, LogLevel: %s, Verbose: %d, Advertise: %t",
		c.Host, c.Port, c.Interface, c.PollInterval, c.DisplayPollInterval, c.LogLevel, c.Verbose, c.Advertise)
}
