// Package main is the entry point for wardenmq.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thornlake/wardenmq/internal/buildinfo"
	"github.com/thornlake/wardenmq/internal/config"
	"github.com/thornlake/wardenmq/internal/events"
	"github.com/thornlake/wardenmq/internal/obsapi"
	"github.com/thornlake/wardenmq/internal/supervisor"
)

// shutdownGrace bounds how long the observability server is given to
// drain in-flight requests once a shutdown signal arrives.
const shutdownGrace = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (overrides CONFIG_FILE)")
	obsAddress := flag.String("obs-address", "", "observability server bind address")
	obsPort := flag.Int("obs-port", 8080, "observability server bind port")
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Println(buildinfo.String())
		for k, v := range buildinfo.BuildInfo() {
			fmt.Printf("  %-12s %s\n", k+":", v)
		}
		return
	}

	logger, closeLog := newLogger()
	defer closeLog()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfgPath, err := config.FindConfig(path)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		if level, err := config.ParseLogLevel(cfg.LogLevel); err == nil {
			logger, closeLog = newLoggerAtLevel(level)
			defer closeLog()
		} else {
			logger.Warn("invalid logLevel in config, keeping LOG_LEVEL env setting", "error", err)
		}
	}

	logger.Info("starting wardenmq", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "config", cfgPath)

	bus := events.New()
	super := supervisor.New(cfg, bus, logger)
	obs := obsapi.NewServer(*obsAddress, *obsPort, bus, func() any { return super.Status() }, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received, shutting down gracefully")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- super.Run(ctx)
	}()

	if err := obs.Start(ctx); err != nil {
		logger.Error("observability server failed", "error", err)
	}

	if err := <-errCh; err != nil {
		logger.Error("supervisor exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("wardenmq stopped")
}

// newLogger builds the default logger from the LOG_PATH/LOG_LEVEL
// environment variables, used before the config file (which may set
// its own logLevel override) has been loaded.
func newLogger() (*slog.Logger, func() error) {
	level, err := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = slog.LevelDebug
	}
	return buildLogger(level)
}

func newLoggerAtLevel(level slog.Level) (*slog.Logger, func() error) {
	return buildLogger(level)
}

// buildLogger writes to stderr and, if LOG_PATH is set, additionally
// to <LOG_PATH>/log.txt (created recursively per §6). The returned
// closer must be called on shutdown to flush and close the log file.
func buildLogger(level slog.Level) (*slog.Logger, func() error) {
	writers := []io.Writer{os.Stderr}
	closer := func() error { return nil }

	if logPath := os.Getenv("LOG_PATH"); logPath != "" {
		if err := os.MkdirAll(logPath, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create LOG_PATH %q: %v\n", logPath, err)
		} else {
			f, err := os.OpenFile(filepath.Join(logPath, "log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to open log file under %q: %v\n", logPath, err)
			} else {
				writers = append(writers, f)
				closer = f.Close
			}
		}
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer
}
