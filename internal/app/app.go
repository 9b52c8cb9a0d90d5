package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"configurator-backend/internal/domain"
	"configurator-backend/internal/handlers"
)

// Options параметры запуска приложения.
type Options struct {
	CatalogDir string        // перекрытие встроенных каталогов, может быть пустым
	UploadDir  string        // куда складывать картинки слоёв
	SessionTTL time.Duration // сколько живёт сессия без запросов
	Debounce   time.Duration // пауза перед запросом расстояния по индексу
	Logger     *slog.Logger
}

type App struct {
	mux *http.ServeMux
	Env *handlers.Env
}

// New собирает приложение. db может быть nil: тогда заявки и настройки
// живут только в памяти.
func New(ctx context.Context, db *sql.DB, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	// 1. Схема БД
	if err := ensureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensureSchema: %w", err)
	}

	// 2. Встроенные каталоги и перекрытие из директории
	products, err := domain.DefaultProducts()
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	if opts.CatalogDir != "" {
		n, err := products.LoadDir(opts.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("load catalog dir: %w", err)
		}
		log.Info("catalogs loaded from dir", "dir", opts.CatalogDir, "count", n)
	}

	env := handlers.NewEnv(db, products, log, opts.SessionTTL, opts.Debounce)
	if opts.UploadDir != "" {
		env.UploadDir = opts.UploadDir
	}

	// 3. Настройки из таблицы settings
	if err := env.LoadSettings(ctx); err != nil {
		return nil, err
	}
	if env.Settings().AdminPasswordHash == "" {
		log.Warn("admin password is not set, admin endpoints are disabled")
	}

	mux := http.NewServeMux()
	registerRoutes(mux, env)

	return &App{
		mux: mux,
		Env: env,
	}, nil
}

func (a *App) Router() *http.ServeMux {
	return a.mux
}

// SweepSessions удаляет простаивающие сессии каждые interval до отмены ctx.
func (a *App) SweepSessions(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := a.Env.Sessions.Sweep(); n > 0 {
				a.Env.Log.Info("idle sessions swept", "count", n, "active", a.Env.Sessions.Len())
			}
		}
	}
}
