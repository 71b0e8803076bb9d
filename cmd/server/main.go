package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwaldner/bsmpricer/internal/app"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/handlers"
	"github.com/jwaldner/bsmpricer/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		logger.Log.Fatalf("Failed to initialize logging: %v", err)
	}
	log := logger.WithComponent("server")
	log.Infof("BSM pricer starting - Port: %s", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	// Refresh the constituents cache in the background; portfolio runs fall back to it
	go func() {
		if err := application.Symbols.Constituents().AutoUpdate(ctx, handlers.SymbolMaxAge); err != nil {
			log.Warnf("Symbol auto-update failed: %v", err)
		}
	}()

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           handlers.NewRouter(application.Handlers()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Shutdown failed: %v", err)
		}
	}()

	log.Infof("Server starting on http://localhost:%s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Info(application.Market.GetPerformanceReport())
}
