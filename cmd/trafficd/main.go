package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/trafficd/internal/api"
	"github.com/dmdmdm-nz/trafficd/internal/display"
	"github.com/dmdmdm-nz/trafficd/internal/netmon"
	"github.com/dmdmdm-nz/trafficd/internal/runtime"
	"github.com/dmdmdm-nz/trafficd/internal/traffic"
	"github.com/dmdmdm-nz/trafficd/pkg/cli"
)

func main() {
	// Parse command line flags
	cfg := cli.ParseFlags()

	// Configure logging before any service builds its logger.
	setLogLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})

	log.Infof("Config: %s", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	netmonSvc := netmon.NewService(netmon.NewWatcher(), cfg.Interface)
	displaySvc := display.NewService(display.NewWatcher(cfg.DisplayPollInterval))
	poller := traffic.NewPoller(cfg.Interface, netmon.NewPsutilReader(), traffic.WithInterval(cfg.PollInterval))
	poller.SetVerboseLogging(cfg.Verbose)
	apiSvc := api.NewService(cfg.Host, cfg.Port, cfg.Advertise, poller, netmonSvc, displaySvc)

	// Wire subscriptions BEFORE starting producers to avoid missing anything.
	ifCh, ifUnsub := netmonSvc.Subscribe()
	poller.AttachNetmon(ifCh, ifUnsub)

	screenCh, screenUnsub := displaySvc.Subscribe()
	poller.AttachDisplay(screenCh, screenUnsub)

	super := runtime.NewSupervisor()
	super.Add("traffic", poller.Start, poller.Close)
	super.Add("netmon", netmonSvc.Start, netmonSvc.Close)
	super.Add("display", displaySvc.Start, displaySvc.Close)
	super.Add("api", apiSvc.Start, apiSvc.Close)

	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("Supervisor start failed")
		os.Exit(1)
	}
	if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("Supervisor wait failed")
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
