package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"configurator-backend/internal/handlers"
)

func registerRoutes(mux *http.ServeMux, env *handlers.Env) {
	withCORS := handlers.WithCORS

	// --- API ---
	mux.Handle("/api/products", withCORS(http.HandlerFunc(env.HandleProducts)))
	// /api/products/{id}/catalog
	mux.Handle("/api/products/", withCORS(http.HandlerFunc(env.HandleProductCatalog)))

	// сессии конфигуратора
	mux.Handle("/api/sessions", withCORS(http.HandlerFunc(env.HandleSessions)))
	mux.Handle("/api/sessions/", withCORS(http.HandlerFunc(env.HandleSession)))

	// настройки для администратора (геокодер, склад, Telegram)
	mux.Handle("/api/admin/settings", withCORS(http.HandlerFunc(env.HandleAdminSettings)))
	// загрузка файлов (картинки для слоёв)
	mux.Handle("/api/upload", withCORS(http.HandlerFunc(env.HandleUpload)))

	// загруженные картинки слоёв
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(env.UploadDir))))

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
