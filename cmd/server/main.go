package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xactrix/xact-two/api/internal/app"
	"github.com/xactrix/xact-two/api/internal/config"
	"github.com/xactrix/xact-two/api/internal/logger"
)

type App struct {
	ctx        context.Context
	logger     *logger.Logger
	cfg        *config.Config
	featureCfg *config.FeatureConfig
	server     *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &App{
		ctx:    ctx,
		logger: logger.New(),
	}

	err := a.run()
	stop()
	if err != nil {
		a.logger.Error("Application error", logger.Error(err))
		os.Exit(1)
	}
}

func (a *App) run() error {
	if err := a.initialize(); err != nil {
		return err
	}
	return a.server.Run(a.ctx)
}

func (a *App) initialize() error {
	envPath := getEnvOrDefault("ENV_FILE", ".env")
	cfg, err := config.LoadWithFile(envPath)
	if err != nil {
		a.logger.Error("Failed to load mail config", logger.Error(err), logger.F("PATH", envPath))
		return err
	}
	a.cfg = cfg

	featureCfg, err := config.LoadFeatureConfig(cfg.FeatureConfigPath)
	if err != nil {
		a.logger.Error("Failed to load feature config", logger.Error(err), logger.F("PATH", cfg.FeatureConfigPath))
		return err
	}
	a.featureCfg = featureCfg

	server, err := app.New(cfg, featureCfg, a.logger)
	if err != nil {
		a.logger.Error("Failed to initialize booking agent", logger.Error(err))
		return err
	}
	a.server = server

	if cfg.TestEmailOnly != "" {
		a.logger.Info("Email service initialized (TEST MODE)", logger.Status("ready"), logger.F("TEST_EMAIL", cfg.TestEmailOnly))
	} else {
		a.logger.Info("Email service initialized", logger.Status("ready"), logger.F("SENDER", cfg.Mail.Email))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
