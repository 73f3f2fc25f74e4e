package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dmdmdm-nz/zeroconf"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/trafficd/internal/netmon"
	"github.com/dmdmdm-nz/trafficd/pkg/version"
)

const serviceType = "_trafficd._tcp"

// Service is the HTTP control and streaming API.
type Service struct {
	address   string
	port      int
	advertise bool

	poller TrafficPoller
	links  LinkMonitor
	screen ScreenMonitor

	mu     sync.Mutex
	server *http.Server
	mdns   *zeroconf.Server
	closed bool
}

func NewService(host string, port int, advertise bool, poller TrafficPoller, links LinkMonitor, screen ScreenMonitor) *Service {
	return &Service{
		address:   host,
		port:      port,
		advertise: advertise,
		poller:    poller,
		links:     links,
		screen:    screen,
	}
}

// Start serves the API until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.address, strconv.Itoa(s.port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	if s.advertise {
		s.startAdvertising()
	}

	log.Infof("Starting trafficd API service at %s", addr)
	defer log.Info("Stopping trafficd API service")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api listen on %s: %w", addr, err)
	}
}

func (s *Service) startAdvertising() {
	host, err := os.Hostname()
	if err != nil {
		host = "trafficd"
	}
	txt := []string{
		"version=" + version.Version,
		"protocol=" + version.Protocol,
	}

	server, err := zeroconf.Register(host, serviceType, "local.", s.port, txt, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to advertise API over mDNS")
		return
	}

	log.WithFields(log.Fields{
		"instance": host,
		"service":  serviceType,
		"port":     s.port,
	}).Info("Advertising API over mDNS")

	s.mu.Lock()
	s.mdns = server
	s.mu.Unlock()
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}
	if s.server != nil {
		// Listeners may already be gone after a graceful shutdown.
		_ = s.server.Close()
	}
	return nil
}

// Handler routes every API endpoint.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/state.json", s.handleStateJSON)
	mux.HandleFunc("/interface", s.handleInterface)
	mux.HandleFunc("/connectivity", s.handleConnectivity)
	mux.HandleFunc("/screen", s.handleScreen)
	mux.HandleFunc("/verbose", s.handleVerbose)
	mux.HandleFunc("/ws/activity", s.streamActivity)
	return mux
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dump, err := s.poller.DumpState(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read state: %v", err), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(dump))
}

func (s *Service) handleStateJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st, err := s.poller.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleInterface(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing name"})
		return
	}

	log.WithField("interface", name).Info("Switching monitored interface")

	// The poller must drop its baseline before the new link state arrives.
	s.poller.SetInterface(name)
	s.links.SetInterface(name)
	w.WriteHeader(http.StatusAccepted)
}

// handleConnectivity injects a link state into the poller. The next change
// reported by the link monitor overrides it.
func (s *Service) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, ok := netmon.ParseDetailedState(r.URL.Query().Get("state"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown state %q", state)})
		return
	}
	log.WithField("state", state).Info("Overriding connectivity")
	s.poller.OnConnectivityChanged(state)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) handleScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	on, err := strconv.ParseBool(r.URL.Query().Get("on"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "on must be a boolean"})
		return
	}
	s.screen.Set(on)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) handleVerbose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if err != nil || level < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "level must be a non-negative integer"})
		return
	}
	s.poller.SetVerboseLogging(level)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
}
