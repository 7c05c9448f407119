// Package server initializes and runs the credential service.
// It connects the event log storage, wires the registration and
// sign-in services, handles graceful shutdown, and starts the
// public HTTP endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/manis-auth/manis/internal/logging"
	"github.com/manis-auth/manis/internal/server/auth"
	"github.com/manis-auth/manis/internal/server/config"
	"github.com/manis-auth/manis/internal/server/eventlog"
	"github.com/manis-auth/manis/internal/server/hashing"
	"github.com/manis-auth/manis/internal/server/httpapi"
	"github.com/manis-auth/manis/internal/server/services"
	"github.com/manis-auth/manis/internal/server/validation"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService *services.AuthService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := eventlog.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repo := eventlog.NewPostgresRepository(db)

	tokens := auth.NewTokenFactory([]byte(cfg.SecretKey), cfg.TokenValidityDuration,
		cfg.JWTIssuer, cfg.JWTAudience)

	as := services.NewAuthService(repo, tokens, hashing.NewRegistry(),
		validation.NewFieldValidator(), logger, cfg.HashMethod)

	return &App{config: cfg, logger: logger, authService: as}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
