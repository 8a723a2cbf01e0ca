// internal/config/config.go
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Export  ExportConfig  `mapstructure:"export"`
	App     AppConfig     `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MonitorConfig represents the discovery loop configuration
type MonitorConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Workers      int           `mapstructure:"workers"`
	QueueSize    int           `mapstructure:"queue_size"`
	AutoStart    bool          `mapstructure:"auto_start"`
}

// ProbeConfig represents the device probe configuration
type ProbeConfig struct {
	BaudRate     int           `mapstructure:"baud_rate"`
	SyncTimeout  time.Duration `mapstructure:"sync_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	SyncAttempts int           `mapstructure:"sync_attempts"`
}

// ExportConfig represents export defaults
type ExportConfig struct {
	DefaultFormat string `mapstructure:"default_format"`
	DefaultDir    string `mapstructure:"default_dir"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/macmon")

	// Environment variable support
	viper.SetEnvPrefix("MACMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file; a missing file is fine, defaults and env apply
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", "8086")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Monitor defaults
	viper.SetDefault("monitor.tick_interval", "1000ms")
	viper.SetDefault("monitor.workers", DefaultWorkerCount())
	viper.SetDefault("monitor.queue_size", 64)
	viper.SetDefault("monitor.auto_start", false)

	// Probe defaults
	viper.SetDefault("probe.baud_rate", 115200)
	viper.SetDefault("probe.sync_timeout", "5s")
	viper.SetDefault("probe.read_timeout", "500ms")
	viper.SetDefault("probe.sync_attempts", 7)

	// Export defaults
	viper.SetDefault("export.default_format", "csv")
	viper.SetDefault("export.default_dir", ".")

	// App defaults
	viper.SetDefault("app.name", "macmon")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// DefaultWorkerCount sizes the probe pool from available parallelism.
// Never below two, capped so a many-core host does not run dozens of
// concurrent bootloader handshakes against the serial subsystem.
func DefaultWorkerCount() int {
	workers := runtime.NumCPU()
	if workers < 2 {
		return 2
	}
	if workers > 8 {
		return 8
	}
	return workers
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Monitor.TickInterval <= 0 {
		return fmt.Errorf("monitor.tick_interval must be positive")
	}
	if config.Monitor.Workers < 2 {
		return fmt.Errorf("monitor.workers must be at least 2")
	}
	if config.Probe.BaudRate <= 0 {
		return fmt.Errorf("probe.baud_rate must be positive")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
