package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fiore/internal/auth"
	"github.com/MrJamesThe3rd/fiore/internal/config"
	fioreHttp "github.com/MrJamesThe3rd/fiore/internal/http"
	authHandler "github.com/MrJamesThe3rd/fiore/internal/http/auth"
	dashboardHandler "github.com/MrJamesThe3rd/fiore/internal/http/dashboard"
	recordHandler "github.com/MrJamesThe3rd/fiore/internal/http/record"
	uploadHandler "github.com/MrJamesThe3rd/fiore/internal/http/upload"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	policy, err := auth.NewOriginPolicy(cfg.Auth.AllowedOrigins)
	if err != nil {
		slog.Error("invalid auth origins", "error", err)
		os.Exit(1)
	}

	opts := invoicing.Options{
		BaseURL:     cfg.APIBaseURL(),
		HTTPClient:  &http.Client{Timeout: cfg.API.Timeout},
		RefreshPath: cfg.API.RefreshPath,
		Logger:      slog.Default(),
	}

	var (
		onboarding    = invoicing.NewOnboarding(opts)
		recordService = record.NewService(invoicing.NewSession(opts), slog.Default())
	)

	var (
		authH      = authHandler.NewHandler(onboarding, policy, cfg.App.Name, cfg.App.PublicURL)
		dashboardH = dashboardHandler.NewHandler(recordService, validator.New(), time.Now)
		recordsH   = recordHandler.NewHandler(recordService)
		uploadsH   = uploadHandler.NewHandler(invoicing.NewUpload(opts), cfg.API.UploadPath)
	)

	router := fioreHttp.New(cfg.CORS.AllowedOrigins, authH, dashboardH, recordsH, uploadsH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + cfg.API.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := make(chan struct{})

	go func() {
		defer close(shutdown)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "addr", srv.Addr, "api", cfg.APIBaseURL())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	<-shutdown
	slog.Info("server stopped")
}
