// Command seatirdd runs the SEATIRD simulation daemon: an HTTP API for
// creating, running, and querying stochastic epidemic simulation runs,
// with an optional SQLite archive of completed runs.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/epimodels/seatird-core/internal/archive"
	"github.com/epimodels/seatird-core/internal/seatirdd"
	"github.com/epimodels/seatird-core/pkg/logger"
)

// envConfig supplies flag defaults from the environment
type envConfig struct {
	HTTPAddr    string `env:"SEATIRD_HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"SEATIRD_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"SEATIRD_LOG_FORMAT" envDefault:"json"`
	ArchivePath string `env:"SEATIRD_ARCHIVE_PATH"`
}

func main() {
	defaults, err := env.ParseAs[envConfig]()
	if err != nil {
		logger.Error("failed to parse environment", "error", err)
		os.Exit(1)
	}

	var httpAddr, logLevel, logFormat, archivePath string
	flag.StringVar(&httpAddr, "http-addr", defaults.HTTPAddr, "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&logFormat, "log-format", defaults.LogFormat, "log format (json, text)")
	flag.StringVar(&archivePath, "archive", defaults.ArchivePath, "SQLite archive path (empty disables archiving)")
	flag.Parse()

	logger.SetDefault(logger.NewFormat(logLevel, logFormat, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := seatirdd.NewRunStore()

	var archiver seatirdd.Archiver
	if archivePath != "" {
		a, err := archive.Open(archivePath)
		if err != nil {
			logger.Error("failed to open archive", "path", archivePath, "error", err)
			stop()
			os.Exit(1)
		}
		defer a.Close()
		archiver = a
		logger.Info("archiving completed runs", "path", archivePath)
	}

	executor := seatirdd.NewExecutor(store, archiver, logger.Default)

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           seatirdd.NewHTTPServer(store, executor, logger.Default).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
