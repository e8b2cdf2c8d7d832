// Package app assembles the product manager from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/product-manager/internal/config"
	"github.com/prn-tf/product-manager/internal/service"
	"github.com/prn-tf/product-manager/internal/storage"
)

// Auth modes.
const (
	ModeSecure    = "secure"
	ModeSimple    = "simple"
	ModePrototype = "prototype"
)

// App holds the opened stores and the services built on them.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Storage  *storage.Storage
	Auth     service.Authenticator
	Products service.ProductManager
}

// New opens the stores named by cfg and builds the services for auth.mode.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Storage: st,
	}

	repos := st.Repos
	switch cfg.Auth.Mode {
	case ModeSecure, "":
		auth := service.NewAuthService(repos.Users, repos.Sessions, repos.KV, service.AuthOptions{
			Iterations:    cfg.Auth.PBKDF2Iterations,
			SessionTTL:    cfg.Auth.SessionTTL,
			RememberMeTTL: cfg.Auth.RememberMeTTL,
		}, logger)
		a.Auth = auth
		a.Products = service.NewProductService(repos.Products, auth, logger)

	case ModeSimple:
		auth := service.NewSimpleAuthService(repos.KV, cfg.Auth.SessionTTL, logger)
		a.Auth = auth
		a.Products = service.NewProductService(repos.Products, auth, logger)

	case ModePrototype:
		a.Auth = service.NewPrototypeAuthService(repos.KV, logger)
		a.Products = service.NewPrototypeProductService(repos.KV, logger)

	default:
		_ = st.Close()
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	logger.Debug().Str("mode", cfg.Auth.Mode).Msg("services ready")
	return a, nil
}

// Restore reloads the persisted session, if any.
func (a *App) Restore(ctx context.Context) (bool, error) {
	return a.Auth.RestoreSession(ctx)
}

// Reset wipes every user, product and session and logs out.
func (a *App) Reset(ctx context.Context) error {
	authErr := a.Auth.ClearAuthData(ctx)
	if err := a.Storage.Repos.ClearAll(ctx); err != nil {
		return errors.Join(authErr, fmt.Errorf("failed to clear data: %w", err))
	}
	a.Logger.Info().Msg("all data cleared")
	return authErr
}

// Close releases the stores.
func (a *App) Close() error {
	return a.Storage.Close()
}
