package main

import (
	"busbook/internal/maestro/api"
	"busbook/pkg/client"
	"busbook/pkg/config"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := config.Load("maestro")
	log := cfg.Log

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	port := os.Getenv("MAESTRO_PORT")
	if port == "" {
		port = "8090"
	}

	// flows only call public endpoints; the token is optional
	apiClient := client.NewAPI(baseURL, os.Getenv("MAESTRO_API_TOKEN"))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api.SetupRouter(apiClient, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Starting Maestro API server", "address", server.Addr, "base_url", baseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	log.Info("Server stopped gracefully")
}
