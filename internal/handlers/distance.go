package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultOSRMURL      = "https://router.project-osrm.org"
)

var ErrNoGeocodeResult = errors.New("geocoder: no results")

// RoutePoint точка lat/lon
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteGeocoder считает расстояние по дороге от склада до индекса:
// Nominatim для координат, OSRM для маршрута.
// Публичный Nominatim разрешает не больше запроса в секунду, поэтому
// все запросы к нему идут через limiter.
type RouteGeocoder struct {
	NominatimBaseURL string
	OSRMBaseURL      string
	Depot            string
	Country          string
	Client           *http.Client

	limiter *rate.Limiter

	mu       sync.Mutex
	depotPos *RoutePoint
}

func NewRouteGeocoder(nominatimBaseURL, osrmBaseURL, depot string) *RouteGeocoder {
	if nominatimBaseURL == "" {
		nominatimBaseURL = defaultNominatimURL
	}
	if osrmBaseURL == "" {
		osrmBaseURL = defaultOSRMURL
	}
	return &RouteGeocoder{
		NominatimBaseURL: strings.TrimRight(nominatimBaseURL, "/"),
		OSRMBaseURL:      strings.TrimRight(osrmBaseURL, "/"),
		Depot:            depot,
		Country:          "nl",
		Client:           &http.Client{Timeout: 10 * time.Second},
		limiter:          rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// DistanceKm расстояние от склада до индекса в одну сторону, км.
func (g *RouteGeocoder) DistanceKm(ctx context.Context, postcode string) (float64, error) {
	from, err := g.depotPoint(ctx)
	if err != nil {
		return 0, fmt.Errorf("geocode depot: %w", err)
	}
	to, err := g.geocode(ctx, postcode, g.Country)
	if err != nil {
		return 0, fmt.Errorf("geocode %s: %w", postcode, err)
	}
	meters, err := g.route(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return meters / 1000.0, nil
}

// координаты склада не меняются, запрашиваем один раз
func (g *RouteGeocoder) depotPoint(ctx context.Context) (RoutePoint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depotPos != nil {
		return *g.depotPos, nil
	}
	p, err := g.geocode(ctx, g.Depot, "")
	if err != nil {
		return RoutePoint{}, err
	}
	g.depotPos = &p
	return p, nil
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *RouteGeocoder) geocode(ctx context.Context, query, country string) (RoutePoint, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return RoutePoint{}, err
	}

	u, err := url.Parse(g.NominatimBaseURL + "/search")
	if err != nil {
		return RoutePoint{}, fmt.Errorf("bad nominatim base url: %w", err)
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)
	if country != "" {
		q.Set("countrycodes", country)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RoutePoint{}, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", "configurator/1.0")

	resp, err := g.Client.Do(req)
	if err != nil {
		return RoutePoint{}, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RoutePoint{}, fmt.Errorf("nominatim status: %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return RoutePoint{}, fmt.Errorf("decode nominatim: %w", err)
	}
	if len(results) == 0 {
		return RoutePoint{}, fmt.Errorf("%w for %q", ErrNoGeocodeResult, query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return RoutePoint{}, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return RoutePoint{}, fmt.Errorf("parse lon: %w", err)
	}
	return RoutePoint{Lat: lat, Lon: lon}, nil
}

// OSRM ответ, геометрия не нужна
type osrmRouteResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
	Code string `json:"code"`
}

// route возвращает дистанцию маршрута в метрах
func (g *RouteGeocoder) route(ctx context.Context, from, to RoutePoint) (float64, error) {
	u, err := url.Parse(g.OSRMBaseURL + "/route/v1/driving/")
	if err != nil {
		return 0, fmt.Errorf("bad osrm base url: %w", err)
	}

	// OSRM ожидает lon,lat
	u.Path += fmt.Sprintf("%f,%f;%f,%f", from.Lon, from.Lat, to.Lon, to.Lat)
	q := u.Query()
	q.Set("overview", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build osrm request: %w", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm status: %s", resp.Status)
	}

	var data osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode osrm: %w", err)
	}
	if data.Code != "" && data.Code != "Ok" {
		return 0, fmt.Errorf("osrm code: %s", data.Code)
	}
	if len(data.Routes) == 0 {
		return 0, fmt.Errorf("osrm: no routes")
	}

	return data.Routes[0].Distance, nil
}
