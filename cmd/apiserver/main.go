// Command apiserver runs the climarisk assessment API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/propshield/climarisk/internal/app"
	"github.com/propshield/climarisk/internal/config"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting climarisk api server",
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode),
	)
	return application.Run(ctx)
}

// loadConfig reads the path from CLIMARISK_CONFIG, falling back to
// environment variables alone.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CLIMARISK_CONFIG"); path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
