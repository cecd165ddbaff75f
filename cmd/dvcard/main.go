package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dvcard/internal/config"
	"dvcard/internal/logging"
	"dvcard/internal/prefs"
	"dvcard/internal/server"
	"dvcard/internal/store"
)

func main() {
	cfg := config.Load()

	// flags override the environment
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logLevel := flag.String("log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", cfg.Log.Format, "log format (json or console)")
	flag.Parse()

	logger, err := logging.New(*logLevel, *logFormat, "dvcard")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	st, err := store.Open(*dbPath, logger)
	if err != nil {
		// a failed migration is fatal: the application cannot proceed
		// against this database file
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	pr, err := prefs.Open(*dbPath, logger)
	if err != nil {
		logger.Fatal("open prefs", zap.Error(err))
	}
	defer pr.Close()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      server.New(st, pr, logger).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("dvcard listening", zap.String("addr", *addr), zap.String("db", *dbPath))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
	<-done
	logger.Info("server stopped")
}
