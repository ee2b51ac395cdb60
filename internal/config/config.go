// Package config содержит логику чтения конфигурации симулятора.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации симулятора.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	WorkerCount       int           `env:"WORKER_COUNT"`
	SessionTimeout    time.Duration `env:"SESSION_TIMEOUT"`
	PurgeHorizon      time.Duration `env:"PURGE_HORIZON"`
	RetainExpired     bool          `env:"RETAIN_EXPIRED"`
	RandomSeed        int64         `env:"RANDOM_SEED"`
	NotificationBatch int           `env:"NOTIFICATION_BATCH"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{RetainExpired: true}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envWorkerCount := cfg.WorkerCount
	envSessionTimeout := cfg.SessionTimeout
	envPurgeHorizon := cfg.PurgeHorizon
	envRandomSeed := cfg.RandomSeed
	envNotificationBatch := cfg.NotificationBatch

	fs.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for stats HTTP server")
	fs.IntVar(&cfg.WorkerCount, "w", 8, "scheduler worker pool size")
	fs.DurationVar(&cfg.SessionTimeout, "t", time.Minute, "session inactivity timeout")
	fs.DurationVar(&cfg.PurgeHorizon, "p", 24*time.Hour, "expired session purge horizon")
	fs.BoolVar(&cfg.RetainExpired, "k", cfg.RetainExpired, "keep expired sessions in a side table")
	fs.Int64Var(&cfg.RandomSeed, "s", 1, "random source seed")
	fs.IntVar(&cfg.NotificationBatch, "n", 10, "notification delivery batch size")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envWorkerCount != 0 {
		cfg.WorkerCount = envWorkerCount
	}
	if envSessionTimeout != 0 {
		cfg.SessionTimeout = envSessionTimeout
	}
	if envPurgeHorizon != 0 {
		cfg.PurgeHorizon = envPurgeHorizon
	}
	if envRandomSeed != 0 {
		cfg.RandomSeed = envRandomSeed
	}
	if envNotificationBatch != 0 {
		cfg.NotificationBatch = envNotificationBatch
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 8
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = time.Minute
	}
	if cfg.PurgeHorizon <= 0 {
		cfg.PurgeHorizon = 24 * time.Hour
	}

	return cfg, nil
}
