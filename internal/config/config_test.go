// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8086",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Monitor: MonitorConfig{
			TickInterval: time.Second,
			Workers:      4,
		},
		Probe: ProbeConfig{
			BaudRate: 115200,
		},
		App: AppConfig{
			Environment: "development",
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validate(validConfig()))
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Host = ""
		assert.Error(t, validate(cfg))
	})

	t.Run("zero tick interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.TickInterval = 0
		assert.Error(t, validate(cfg))
	})

	t.Run("single worker rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.Workers = 1
		assert.Error(t, validate(cfg))
	})

	t.Run("bad environment", func(t *testing.T) {
		cfg := validConfig()
		cfg.App.Environment = "sandbox"
		assert.Error(t, validate(cfg))
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		assert.Error(t, validate(cfg))
	})
}

func TestDefaultWorkerCount(t *testing.T) {
	workers := DefaultWorkerCount()
	assert.GreaterOrEqual(t, workers, 2)
	assert.LessOrEqual(t, workers, 8)
}

func TestGetServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "127.0.0.1:8086", cfg.GetServerAddr())

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}
