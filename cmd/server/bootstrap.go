package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/pkg/config"
	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

// loadGame resolves the question bank and engine tuning, falling back to the
// embedded bank and the default tower when no paths are configured
func loadGame(cfg config.GameConfig, logger *zap.Logger) (*questions.Bank, engine.Config, error) {
	bank := questions.Default()
	if cfg.QuestionBankPath != "" {
		loaded, err := questions.LoadFile(cfg.QuestionBankPath)
		if err != nil {
			return nil, engine.Config{}, fmt.Errorf("failed to load question bank: %w", err)
		}
		bank = loaded
	}
	logger.Info("question bank loaded",
		zap.Int("items", bank.Len()),
		zap.String("source", sourceOf(cfg.QuestionBankPath)))

	tuning := engine.DefaultConfig()
	if cfg.TuningPath != "" {
		loaded, err := engine.LoadConfigFile(cfg.TuningPath)
		if err != nil {
			return nil, engine.Config{}, err
		}
		tuning = loaded
	}
	logger.Info("game tuning loaded",
		zap.Int("total_blocks", tuning.Tower.TotalBlocks()),
		zap.String("source", sourceOf(cfg.TuningPath)))

	return bank, tuning, nil
}

func tuningOptions(tuning engine.Config, logger *zap.Logger) []engine.Option {
	return []engine.Option{
		engine.WithConfig(tuning),
		engine.WithLogger(logger),
	}
}

func sourceOf(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// LogConfiguration logs the loaded configuration
func LogConfiguration(logger *zap.Logger, cfg *config.Config) {
	logger.Info("configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("db_type", cfg.Database.Type),
		zap.String("db_dsn", maskDatabaseURL(cfg.Database.DSN)),
		zap.Int("max_sessions", cfg.Sessions.MaxSessions),
		zap.Duration("session_idle_timeout", cfg.Sessions.IdleTimeout),
		zap.Duration("session_sweep_interval", cfg.Sessions.SweepInterval),
		zap.Float64("ws_messages_per_second", cfg.WebSocket.MessagesPerSecond),
		zap.Int("ws_burst", cfg.WebSocket.Burst),
	)
}

// maskDatabaseURL masks sensitive information in database URL
func maskDatabaseURL(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:10] + "..." + dsn[len(dsn)-10:]
	}
	return "***"
}
