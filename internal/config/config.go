// Package config loads the application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/bibektako/borrow-lend-backend/internal/httpserver"
	"github.com/bibektako/borrow-lend-backend/internal/logging"
	"github.com/bibektako/borrow-lend-backend/internal/mongodb"
	"github.com/bibektako/borrow-lend-backend/internal/notify"
	"github.com/bibektako/borrow-lend-backend/internal/realtime"
)

// ErrParsingConfig is returned when environment variables cannot be parsed
// into the config struct.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

// Config is the full application configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"borrow-lend-backend"`

	// DispatcherQueueSize bounds pending notification intents; overflow is
	// dropped with a warning.
	DispatcherQueueSize int `env:"DISPATCHER_QUEUE_SIZE" envDefault:"256"`

	// RealtimeBufferSize is the per-connection event buffer.
	RealtimeBufferSize int `env:"REALTIME_BUFFER_SIZE" envDefault:"16"`

	Log   logging.Config
	HTTP  httpserver.Config
	Mongo mongodb.Config
	Redis realtime.RedisConfig
	Email notify.EmailConfig
}

var loadEnvOnce sync.Once

// Load parses the environment into a Config. A .env file, when present, is
// loaded first; its absence is not an error.
func Load() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
