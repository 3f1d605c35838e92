package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docfetch/internal/config"
)

// testConfig builds a daemon configuration around a manifest that
// points at the given server.
func testConfig(t *testing.T, resourceURL string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf("version: 1\nresources:\n  - url: %s\n", resourceURL)
	manifestPath := writeTestFile(t, dir, "resources.yaml", content)

	watch := false
	cfg := config.Default()
	cfg.Manifest = manifestPath
	cfg.Cache.Backend = "memory"
	cfg.Daemon.AdminAddr = "127.0.0.1:0"
	cfg.Daemon.Watch = &watch
	return cfg
}

func TestDaemon_StartRefreshStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("resource"))
	}))
	t.Cleanup(srv.Close)

	d, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)
	require.Equal(t, StateStopped, d.State())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	require.Eventually(t, func() bool { return d.State() == StateRunning }, 5*time.Second, 20*time.Millisecond)

	require.True(t, d.TriggerRefresh())
	require.Eventually(t, func() bool { return d.Status().Runs >= 1 }, 5*time.Second, 20*time.Millisecond,
		"expected the triggered refresh to be recorded")

	st := d.Status()
	require.NotNil(t, st.LastRun)
	require.Equal(t, 1, st.LastRun.Resources)
	require.Equal(t, 1, st.LastRun.Fetched)
	require.Zero(t, st.LastRun.Failed)
	require.Empty(t, st.LastRun.Error)

	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, <-done)
	require.Equal(t, StateStopped, d.State())
}

func TestDaemon_AdminEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("resource"))
	}))
	t.Cleanup(srv.Close)

	d, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	t.Cleanup(func() {
		_ = d.Stop(context.Background())
		<-done
	})

	require.Eventually(t, func() bool { return d.State() == StateRunning }, 5*time.Second, 20*time.Millisecond)
	base := "http://" + d.admin.Addr()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statusResp, err := http.Get(base + "/api/status")
	require.NoError(t, err)
	t.Cleanup(func() { _ = statusResp.Body.Close() })
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var st Status
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&st))
	require.Equal(t, StateRunning, st.State)
	require.Equal(t, "memory", st.CacheBackend)

	// Refresh endpoint only accepts POST
	getResp, err := http.Get(base + "/api/refresh")
	require.NoError(t, err)
	t.Cleanup(func() { _ = getResp.Body.Close() })
	require.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)

	postResp, err := http.Post(base+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = postResp.Body.Close() })
	require.Equal(t, http.StatusAccepted, postResp.StatusCode)
}

func TestDaemon_New_RejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = "carrier-pigeon"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestDaemon_StartTwiceFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("resource"))
	}))
	t.Cleanup(srv.Close)

	d, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	t.Cleanup(func() {
		_ = d.Stop(context.Background())
		<-done
	})

	require.Eventually(t, func() bool { return d.State() == StateRunning }, 5*time.Second, 20*time.Millisecond)
	require.Error(t, d.Start(ctx))
}
