package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var debugLog bool

var rootCmd = &cobra.Command{
	Use:           "configurator",
	Short:         "Visual product configurator backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", os.Getenv("DEBUG") != "", "debug logging")
	rootCmd.AddCommand(serveCmd, catalogCmd, adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		newLogger().Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debugLog {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// envOr значение переменной окружения или def
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
