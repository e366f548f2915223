package internal

import (
	"fmt"
	"time"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=3000"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	StoreBackend    string        `env:"STORE_BACKEND,default=memory"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,default=./data/badger"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT,default=2s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	StaleThreshold  time.Duration `env:"STALE_THRESHOLD,default=10s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects settings the relay cannot run with.
func (c Config) Validate() error {
	if c.StoreBackend != BackendMemory && c.StoreBackend != BackendBadger {
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendBadger, c.StoreBackend)
	}
	if c.StoreBackend == BackendBadger && c.BadgerFilepath == "" {
		return fmt.Errorf("BADGER_FILEPATH is required with the %s backend", BackendBadger)
	}
	for name, d := range map[string]time.Duration{
		"STORE_TIMEOUT":    c.StoreTimeout,
		"SWEEP_INTERVAL":   c.SweepInterval,
		"STALE_THRESHOLD":  c.StaleThreshold,
		"RESTART_INTERVAL": c.RestartInterval,
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}
