package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docfetch/internal/metrics"
)

// AdminServer exposes health, status and metrics endpoints for the daemon.
type AdminServer struct {
	daemon   *Daemon
	server   *http.Server
	listener net.Listener
}

// NewAdminServer creates the admin HTTP server and binds its listener,
// so a busy port fails at startup rather than at first request. A nil
// registry disables the metrics endpoint.
func NewAdminServer(addr string, d *Daemon, registry *prometheus.Registry) (*AdminServer, error) {
	as := &AdminServer{daemon: d}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", as.handleHealth)
	mux.HandleFunc("/api/status", as.handleStatus)
	mux.HandleFunc("/api/refresh", as.handleRefresh)
	if registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(registry))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	as.listener = ln
	as.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return as, nil
}

// Start begins serving in the background.
func (as *AdminServer) Start() {
	slog.Info("Starting admin server", "addr", as.listener.Addr().String())

	go func() {
		if err := as.server.Serve(as.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (as *AdminServer) Stop(ctx context.Context) error {
	slog.Info("Stopping admin server")
	return as.server.Shutdown(ctx)
}

// Addr returns the bound listen address, useful when configured as ":0".
func (as *AdminServer) Addr() string {
	return as.listener.Addr().String()
}

func (as *AdminServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (as *AdminServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(as.daemon.Status()); err != nil {
		slog.Error("Failed to encode status response", "error", err)
	}
}

func (as *AdminServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !as.daemon.TriggerRefresh() {
		http.Error(w, "daemon is not running", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"refresh triggered"}`))
}
