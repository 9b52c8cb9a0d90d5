package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"configurator-backend/internal/domain"
)

// fakeResolver отдаёт фиксированные расстояния и считает вызовы.
type fakeResolver struct {
	mu    sync.Mutex
	km    map[string]float64
	calls []string
}

func (f *fakeResolver) DistanceKm(_ context.Context, postcode string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, postcode)
	km, ok := f.km[postcode]
	if !ok {
		return 0, ErrNoGeocodeResult
	}
	return km, nil
}

func (f *fakeResolver) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	products, err := domain.DefaultProducts()
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := NewEnv(nil, products, log, time.Hour, 20*time.Millisecond)
	env.UploadDir = t.TempDir()
	return env
}

func testMux(env *Env) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", env.HandleProducts)
	mux.HandleFunc("/api/products/", env.HandleProductCatalog)
	mux.HandleFunc("/api/sessions", env.HandleSessions)
	mux.HandleFunc("/api/sessions/", env.HandleSession)
	mux.HandleFunc("/api/admin/settings", env.HandleAdminSettings)
	mux.HandleFunc("/api/upload", env.HandleUpload)
	return mux
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func createSession(t *testing.T, h http.Handler, product string) sessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", createSessionRequest{Product: product})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeState(t, rec)
}
