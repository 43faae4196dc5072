package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/config"
	"github.com/GriffinCanCode/SketchBox/internal/studio"
)

type stubCompleter struct {
	reply string
}

func (s stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.reply, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Sandbox.PoolSize = 2
	cfg.Sketch.MaxSessions = 2
	cfg.Server.Port = "0"
	return cfg
}

func newTestServer(t *testing.T, completer studio.Completer) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(), completer)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func do(srv *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func createSketch(t *testing.T, srv *Server) string {
	t.Helper()
	w := do(srv, http.MethodPost, "/sketches", "application/json", `{"width":64,"height":48}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var info struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	require.NotEmpty(t, info.ID)
	return info.ID
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Sandbox.PoolSize = 0

	_, err := NewServer(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Logging.Level = "loud"
	_, err = NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestHealthCarriesRequestID(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("X-Request-ID"), "req_"))
}

func TestSourceUploadMountsSketch(t *testing.T) {
	srv := newTestServer(t, nil)
	sid := createSketch(t, srv)

	src := "p.setup = () => { p.background(10); };"
	w := do(srv, http.MethodPut, "/sketches/"+sid+"/source", "text/plain", src)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"running"`)

	w = do(srv, http.MethodGet, "/sketches/"+sid+"/frame.png", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	do(srv, http.MethodGet, "/health", "", "")

	w := do(srv, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sketchbox_http_requests_total")
}

func TestPromptWithoutCompleter(t *testing.T) {
	srv := newTestServer(t, nil)
	sid := createSketch(t, srv)

	w := do(srv, http.MethodPost, "/sketches/"+sid+"/prompt", "application/json", `{"prompt":"a red ball"}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestPromptWithCompleter(t *testing.T) {
	reply := `{"thoughts":"one circle","code":"p.draw = () => { p.circle(32, 24, 10); };"}`
	srv := newTestServer(t, stubCompleter{reply: reply})
	sid := createSketch(t, srv)

	w := do(srv, http.MethodPost, "/sketches/"+sid+"/prompt", "application/json", `{"prompt":"a circle"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap struct {
		Code     string `json:"code"`
		Thoughts string `json:"thoughts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Contains(t, snap.Code, "p.circle(32, 24, 10)")
	assert.Equal(t, "one circle", snap.Thoughts)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
