package core

import (
	"fmt"
	"strings"
	"time"
)

type RetryConfig struct {
	InitialBackoffMS int `koanf:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int `koanf:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

func (c RetryConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMS) * time.Millisecond
}

func (c RetryConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMS) * time.Millisecond
}

type SweepConfig struct {
	BatchSize   int `koanf:"batch_size" mapstructure:"batch_size"`
	WorkerCount int `koanf:"worker_count" mapstructure:"worker_count"`
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	Retry       RetryConfig `koanf:"retry" mapstructure:"retry"`
	Sweep       SweepConfig `koanf:"sweep" mapstructure:"sweep"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "webhooks",
		Retry: RetryConfig{
			InitialBackoffMS: int((2 * time.Second).Milliseconds()),
			MaxBackoffMS:     int((5 * time.Minute).Milliseconds()),
		},
		Sweep: SweepConfig{
			BatchSize:   50,
			WorkerCount: 4,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Retry.InitialBackoffMS < 0 {
		return fmt.Errorf("core: retry.initial_backoff_ms must be >= 0")
	}
	if c.Retry.MaxBackoffMS < 0 {
		return fmt.Errorf("core: retry.max_backoff_ms must be >= 0")
	}
	if c.Retry.MaxBackoffMS > 0 && c.Retry.MaxBackoffMS < c.Retry.InitialBackoffMS {
		return fmt.Errorf("core: retry.max_backoff_ms must be >= retry.initial_backoff_ms")
	}
	if c.Sweep.BatchSize < 0 {
		return fmt.Errorf("core: sweep.batch_size must be >= 0")
	}
	if c.Sweep.WorkerCount < 0 {
		return fmt.Errorf("core: sweep.worker_count must be >= 0")
	}
	return nil
}
