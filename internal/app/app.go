package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go-domain-routing-service/internal/config"
	"go-domain-routing-service/internal/observability"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *http.Server
	Runtime *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Runtime: runtime}
}

// Shutdown stops the HTTP server first so no request arrives while the
// telemetry pipeline is flushing.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Runtime != nil {
		if err := a.Runtime.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
