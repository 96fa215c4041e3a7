package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xactrix/xact-two/api/internal/config"
	"github.com/xactrix/xact-two/api/internal/handler"
	"github.com/xactrix/xact-two/api/internal/logger"
	"github.com/xactrix/xact-two/api/internal/orchestrator"
	"github.com/xactrix/xact-two/api/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       *logger.Logger
	orchestrator *orchestrator.Orchestrator
	server       *http.Server
}

// New wires transport, dispatcher, workflow and HTTP routes from configuration.
func New(cfg *config.Config, features *config.FeatureConfig, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.New()
	}
	if features == nil {
		features = config.DefaultFeatureConfig()
	}

	transport, err := service.NewSMTPTransport(cfg.Mail, cfg.SMTPTimeout, cfg.SMTPInsecure)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP transport: %w", err)
	}
	dispatcher, err := service.NewDispatcher(transport, cfg.Mail.Email, features.Branding.Company, cfg.TestEmailOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	orch := orchestrator.New(log, dispatcher)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := handler.NewRouter(handler.NewBookingHandler(orch, features.Branding, log), log, handler.RouterConfig{
		CORSOrigins:      cfg.CORSAllowedOrigins,
		SubmitsPerMinute: cfg.SubmitRatePerMin,
	})

	return &App{
		config:       cfg,
		logger:       log,
		orchestrator: orch,
		server: &http.Server{
			Addr:              cfg.AppAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       20 * time.Second,
			// A submission holds the request open for the whole SMTP session.
			WriteTimeout: cfg.SMTPTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Handler exposes the HTTP routes.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Orchestrator exposes the booking workflow for non-HTTP callers.
func (a *App) Orchestrator() *orchestrator.Orchestrator {
	return a.orchestrator
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("Booking agent listening",
		logger.Action("startup"),
		logger.Status("listening"),
		logger.Addr(ln.Addr().String()),
		logger.F("RELAY", a.config.Mail.Addr()))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down", logger.Action("shutdown"), logger.Status("draining"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("Server stopped", logger.Action("shutdown"), logger.Status("stopped"))
	return nil
}
