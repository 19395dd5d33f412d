package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigenere-go/internal/auth"
	"github.com/vigenere-go/internal/config"
	"github.com/vigenere-go/internal/encryption"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Cipher:    config.CipherConfig{Alphabet: encryption.CharsetDefault, ChunkSize: encryption.DefaultChunkSize},
		Mirror:    config.MirrorConfig{Workers: 1},
		Log:       config.LogConfig{Level: "info", Format: "console"},
		Server:    config.ServerConfig{Address: "127.0.0.1", Port: 0},
		DataDir:   t.TempDir(),
		JWTExpire: 1,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, config.Version, health.Version)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	req.Header.Set("X-Request-ID", "req-given")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "req-given", w.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = "test-secret"
	s := newTestServer(t, cfg)

	body := `{"key":"k","text":"hello"}`

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/encrypt", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/encrypt", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.NewJWTAuth(cfg.JWTSecret, time.Hour).GenerateToken("tester")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/encrypt", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays public
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGzipResponse(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Gzip = true
	s := newTestServer(t, cfg)

	text := strings.Repeat("compress me please ", 200)
	body, _ := json.Marshal(map[string]string{"key": "secret", "text": text})
	req := httptest.NewRequest(http.MethodPost, "/api/encrypt", strings.NewReader(string(body)))
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	v, err := encryption.NewVigenere(encryption.DefaultCharset, "secret")
	require.NoError(t, err)
	want, err := v.EncryptString(text)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Data.Text)
}

func TestJournalRoutes(t *testing.T) {
	cfg := testConfig(t)

	s := newTestServer(t, cfg)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	cfg = testConfig(t)
	cfg.Journal.Enable = true
	s = newTestServer(t, cfg)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRejectsBadCharset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cipher.Charset = "aa"
	_, err := New(cfg)
	assert.Error(t, err)
}
