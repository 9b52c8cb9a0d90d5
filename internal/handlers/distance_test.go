package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// routeServer имитирует Nominatim (/search) и OSRM (/route/v1/driving/...).
func routeServer(t *testing.T, searches *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			searches.Add(1)
			q := r.URL.Query().Get("q")
			w.Header().Set("Content-Type", "application/json")
			switch q {
			case "Depot 1, Utrecht":
				assert.Empty(t, r.URL.Query().Get("countrycodes"))
				_, _ = w.Write([]byte(`[{"lat":"52.09","lon":"5.12"}]`))
			case "1234AB":
				assert.Equal(t, "nl", r.URL.Query().Get("countrycodes"))
				_, _ = w.Write([]byte(`[{"lat":"52.37","lon":"4.89"}]`))
			default:
				_, _ = w.Write([]byte(`[]`))
			}
		case strings.HasPrefix(r.URL.Path, "/route/v1/driving/"):
			// lon,lat;lon,lat
			assert.Equal(t, "/route/v1/driving/5.120000,52.090000;4.890000,52.370000", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":   "Ok",
				"routes": []map[string]float64{{"distance": 45678}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func fastGeocoder(base string) *RouteGeocoder {
	g := NewRouteGeocoder(base, base, "Depot 1, Utrecht")
	g.limiter = rate.NewLimiter(rate.Inf, 1)
	return g
}

func TestRouteGeocoder_DistanceKm(t *testing.T) {
	var searches atomic.Int32
	srv := routeServer(t, &searches)
	defer srv.Close()

	g := fastGeocoder(srv.URL)

	km, err := g.DistanceKm(context.Background(), "1234AB")
	require.NoError(t, err)
	assert.InDelta(t, 45.678, km, 1e-9)
	assert.Equal(t, int32(2), searches.Load())

	// склад геокодируется один раз
	_, err = g.DistanceKm(context.Background(), "1234AB")
	require.NoError(t, err)
	assert.Equal(t, int32(3), searches.Load())
}

func TestRouteGeocoder_NoResult(t *testing.T) {
	var searches atomic.Int32
	srv := routeServer(t, &searches)
	defer srv.Close()

	_, err := fastGeocoder(srv.URL).DistanceKm(context.Background(), "9999ZZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoGeocodeResult)
}

func TestRouteGeocoder_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := fastGeocoder(srv.URL).DistanceKm(context.Background(), "1234AB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestRouteGeocoder_LimiterHonoursContext(t *testing.T) {
	g := NewRouteGeocoder("http://127.0.0.1:0", "", "Depot")
	g.limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	require.True(t, g.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.DistanceKm(ctx, "1234AB")
	assert.Error(t, err)
}

func TestEnv_GeocoderFromSettings(t *testing.T) {
	env := newTestEnv(t)
	assert.Nil(t, env.geocoder())

	env.ApplySettings(Settings{DepotAddress: "Depot 1, Utrecht"})
	g, ok := env.geocoder().(*RouteGeocoder)
	require.True(t, ok)
	assert.Equal(t, defaultNominatimURL, g.NominatimBaseURL)
	assert.Equal(t, defaultOSRMURL, g.OSRMBaseURL)

	fake := &fakeResolver{}
	env.Geocoder = fake
	assert.Same(t, fake, env.geocoder())
}
