// internal/handlers/common.go

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"configurator-backend/internal/configurator"
	"configurator-backend/internal/domain"
)

// Env хранит зависимости для хендлеров.
type Env struct {
	DB       *sql.DB
	Products *domain.Products
	Sessions *SessionRegistry
	Log      *slog.Logger

	UploadDir string

	// TelegramAPIURL базовый адрес Bot API (в тестах подменяется)
	TelegramAPIURL string

	// Geocoder перекрывает геокодер из настроек (Nominatim + OSRM)
	Geocoder configurator.DistanceResolver

	mu       sync.RWMutex
	settings Settings
	routes   *RouteGeocoder
}

// Settings настройки сервиса, хранятся в таблице settings (id = 1).
type Settings struct {
	OSRMBaseURL       string
	NominatimBaseURL  string
	DepotAddress      string // откуда считаем доставку
	TelegramBotToken  string
	TelegramChatID    string
	AdminPasswordHash string
}

// NewEnv собирает Env с реестром сессий.
func NewEnv(db *sql.DB, products *domain.Products, log *slog.Logger, sessionTTL, debounce time.Duration) *Env {
	if log == nil {
		log = slog.Default()
	}
	return &Env{
		DB:       db,
		Products: products,
		Sessions: NewSessionRegistry(sessionTTL, debounce),
		Log:      log,

		UploadDir:      "./uploads",
		TelegramAPIURL: "https://api.telegram.org",
	}
}

// Settings возвращает копию текущих настроек
func (e *Env) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// ApplySettings подменяет настройки и пересобирает геокодер.
func (e *Env) ApplySettings(s Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
	e.routes = nil
	// без адреса склада доставку не считаем
	if strings.TrimSpace(s.DepotAddress) != "" {
		e.routes = NewRouteGeocoder(s.NominatimBaseURL, s.OSRMBaseURL, s.DepotAddress)
	}
}

func (e *Env) geocoder() configurator.DistanceResolver {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.Geocoder != nil {
		return e.Geocoder
	}
	if e.routes != nil {
		return e.routes
	}
	return nil
}

// writeJSON простой helper для JSON-ответов
func (e *Env) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSONStatus как writeJSON, но с кодом ответа
func (e *Env) writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON читает тело запроса; при ошибке сам отвечает 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// WithCORS простой CORS-мидлвар для dev.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
