package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailwright/internal/compose"
)

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil, "test")
	h.SetReady(false)

	rec, body := serve(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, body["status"])
}

func TestReadinessHandler(t *testing.T) {
	sc := newTestServerContext(t)
	h := NewHealthChecker(sc, "test")

	rec, body := serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"ready": "ok", "shutdown": "ok", "database": "ok"}, body["checks"])

	h.SetReady(false)
	rec, body = serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusNotReady, body["status"])

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec, body = serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusShuttingDown, body["checks"].(map[string]any)["shutdown"])
}

func TestReadinessHandler_DatabaseDown(t *testing.T) {
	sc := newTestServerContext(t)
	require.NoError(t, sc.Store().Close())
	h := NewHealthChecker(sc, "test")

	rec, body := serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusUnavailable, body["checks"].(map[string]any)["database"])
}

func TestDetailedHealthHandler(t *testing.T) {
	sc := newTestServerContext(t)
	editor, err := compose.NewEditor(compose.FormatText, "Hi")
	require.NoError(t, err)
	sc.OpenDraft(editor)

	h := NewHealthChecker(sc, "v1.2.3")
	rec, body := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1.2.3", body["version"])
	assert.Equal(t, healthStatusOK, body["database"])
	assert.Equal(t, healthStatusMissing, body["llm"])
	assert.EqualValues(t, 1, body["open_drafts"])
	assert.NotEmpty(t, body["uptime"])
}

func TestRegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker(nil, "").RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec, _ := serve(t, mux, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
