package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int `mapstructure:"WEBSERVER_PORT"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Redis / work queue
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	WorkerConcurrency int    `mapstructure:"WORKER_CONCURRENCY"`

	// API auth. Empty disables the bearer-token check (local dev).
	AuthToken string `mapstructure:"AUTH_TOKEN"`

	// Streaming transcoding provider
	StreamAPIBase       string `mapstructure:"STREAM_API_BASE" validate:"required"`
	StreamAPIToken      string `mapstructure:"STREAM_API_TOKEN"`
	StreamWebhookSecret string `mapstructure:"STREAM_WEBHOOK_SECRET"`

	// AI inference provider
	AIAPIBase  string `mapstructure:"AI_API_BASE" validate:"required"`
	AIAPIToken string `mapstructure:"AI_API_TOKEN"`

	// Vector index provider
	VectorAPIBase  string `mapstructure:"VECTOR_API_BASE"`
	VectorAPIToken string `mapstructure:"VECTOR_API_TOKEN"`

	// Interval between full reconciliation sweeps in the worker.
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	viper.SetDefault("WORKER_CONCURRENCY", 4)
	viper.SetDefault("SWEEP_INTERVAL", "2m")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration", "webserver_port", cfg.WebServerPort, "redis_addr", cfg.RedisAddr, "sweep_interval", cfg.SweepInterval)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
