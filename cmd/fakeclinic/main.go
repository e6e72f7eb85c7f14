// Command fakeclinic serves an in-memory clinic API for local development
// and demos. It speaks the same endpoints and response envelopes as the
// real backend, seeded with a small roster and appointment book.
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

	"github.com/me/clinicli/internal/clinictest"
	"github.com/me/clinicli/internal/logging"
)

func main() {
	addr := flag.String("addr", ":4000", "Listen address")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "Lifetime of minted session tokens")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	if *debug {
		*logLevel = "debug"
	}
	logger := logging.NewLogger(logging.ParseLevel(*logLevel), *logFormat)

	backend := clinictest.New(
		clinictest.WithTokenTTL(*tokenTTL),
		clinictest.WithLogger(logger),
	)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: backend.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("fake clinic API starting", "addr", *addr,
			"admin", clinictest.AdminEmail, "token_ttl", tokenTTL.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
