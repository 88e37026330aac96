package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ertcli/internal/config"
	"ertcli/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Report.OutputDir = filepath.Join(root, "output")
	cfg.Report.SettingsDir = filepath.Join(root, "settings")
	cfg.Report.EventsDir = filepath.Join(root, "events")
	cfg.Otel.MetricExporter = "none"
	return cfg
}

func serve(t *testing.T, app *Application) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()
	return fmt.Sprintf("http://%s", ln.Addr()), cancel, done
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	app, err := NewApplication(testConfig(t), logger)
	require.NoError(t, err)
	require.NotNil(t, app.JobQueue)
	require.NotNil(t, app.ReportService)

	baseURL, cancel, done := serve(t, app)

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(baseURL + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	metricsResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, metricsResp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not shut down")
	}
	assert.True(t, handler.ContainsMessage("Application shutdown complete"))
}

func TestApplication_PrometheusMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Otel.MetricExporter = "prometheus"
	app, err := NewApplication(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, app.OTelProviders.PrometheusHTTP)

	baseURL, cancel, done := serve(t, app)
	defer func() {
		cancel()
		<-done
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(baseURL + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()

	resp, err = http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestApplication_RunListenError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "256.0.0.1"
	app, err := NewApplication(cfg, nil)
	require.NoError(t, err)
	err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
