package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/glizzus/pcmopus/internal/command"
	"github.com/glizzus/pcmopus/internal/config"
)

func run() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	logConfig, err := config.NewLogConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load log config: %w", err)
	}
	logger := logConfig.NewLogger()
	slog.SetDefault(logger)

	encoderConfig, err := config.NewEncoderConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load encoder config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := command.NewApp(command.Options{
		Encoder: encoderConfig,
		Logger:  logger,
	})
	// Exit codes are reported by the app itself.
	return app.RunContext(ctx, os.Args)
}

func main() {
	if err := run(); err != nil {
		slog.Error("opusenc failed", "error", err)
		os.Exit(1)
	}
}
