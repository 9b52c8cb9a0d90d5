package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"configurator-backend/internal/app"
)

var serveOpts struct {
	addr       string
	dsn        string
	catalogDir string
	uploadDir  string
	debounce   time.Duration
	sessionTTL time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.addr, "addr", ":"+envOr("PORT", "3040"), "listen address")
	f.StringVar(&serveOpts.dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN; empty keeps quotes and settings in memory")
	f.StringVar(&serveOpts.catalogDir, "catalog-dir", os.Getenv("CATALOG_DIR"), "directory with *.yaml catalogs overriding the built-in ones")
	f.StringVar(&serveOpts.uploadDir, "upload-dir", envOr("UPLOAD_DIR", "./uploads"), "directory for uploaded layer images")
	f.DurationVar(&serveOpts.debounce, "debounce", 500*time.Millisecond, "pause before the postcode distance lookup")
	f.DurationVar(&serveOpts.sessionTTL, "session-ttl", 2*time.Hour, "idle session lifetime")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if serveOpts.dsn != "" {
		var err error
		db, err = app.OpenDB(ctx, serveOpts.dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("DB connected")
	} else {
		log.Warn("no DATABASE_URL, quotes and settings are not persisted")
	}

	a, err := app.New(ctx, db, app.Options{
		CatalogDir: serveOpts.catalogDir,
		UploadDir:  serveOpts.uploadDir,
		SessionTTL: serveOpts.sessionTTL,
		Debounce:   serveOpts.debounce,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              serveOpts.addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.SweepSessions(gctx, time.Minute)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
