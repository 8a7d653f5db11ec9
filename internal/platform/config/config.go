package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the settings shared by lead_api_service and leadctl.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	LeadAPIServicePort int `mapstructure:"LEAD_API_SERVICE_PORT"`

	// DeliveryEndpoint is the sendMessage URL, or "mock" for the logging sender.
	DeliveryEndpoint string        `mapstructure:"DELIVERY_ENDPOINT"`
	DeliveryTimeout  time.Duration `mapstructure:"DELIVERY_TIMEOUT"`
	ResetDelay       time.Duration `mapstructure:"RESET_DELAY"`

	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`

	// FormsFile overrides the built-in form catalog when set.
	FormsFile string `mapstructure:"FORMS_FILE"`

	// Optional sinks. Empty disables them.
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	NATSUrl     string `mapstructure:"NATS_URL"`

	LedgerCapacity int `mapstructure:"LEDGER_CAPACITY"`

	AdminJWTSecret string `mapstructure:"ADMIN_JWT_SECRET"`
}

// Load reads configs/config.defaults.yaml (if present), a .env file (if
// present) and APP_-prefixed environment variables, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LEAD_API_SERVICE_PORT", 8080)
	v.SetDefault("DELIVERY_ENDPOINT", "http://localhost:3000/api/sendMessage")
	v.SetDefault("DELIVERY_TIMEOUT", 15*time.Second)
	v.SetDefault("RESET_DELAY", 3*time.Second)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("SESSION_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("FORMS_FILE", "")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("LEDGER_CAPACITY", 1000)
	v.SetDefault("ADMIN_JWT_SECRET", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("config.defaults.yaml not found; using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DeliveryEndpoint == "" {
		return errors.New("DELIVERY_ENDPOINT must not be empty")
	}
	if c.LeadAPIServicePort <= 0 || c.LeadAPIServicePort > 65535 {
		return fmt.Errorf("LEAD_API_SERVICE_PORT %d out of range", c.LeadAPIServicePort)
	}
	if c.ResetDelay < 0 || c.DeliveryTimeout < 0 || c.SessionTTL < 0 || c.SessionSweepInterval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}
