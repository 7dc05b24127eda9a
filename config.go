package workqueue

import (
	"fmt"
	"io"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds dispatcher settings read from the environment.
//
//	WORKQUEUE_NAME        dispatcher name in logs (default "workqueue")
//	WORKQUEUE_SHARDS      key registry shards (default 32)
//	WORKQUEUE_LOG_LEVEL   debug, info, warn or error (default "info")
//	WORKQUEUE_LOG_FORMAT  text or json (default "text")
type Config struct {
	Name      string    `env:"WORKQUEUE_NAME" envDefault:"workqueue"`
	Shards    int       `env:"WORKQUEUE_SHARDS" envDefault:"32"`
	LogLevel  string    `env:"WORKQUEUE_LOG_LEVEL" envDefault:"info"`
	LogFormat LogFormat `env:"WORKQUEUE_LOG_FORMAT" envDefault:"text"`
}

var dotenvLoaded sync.Once

// LoadConfig parses Config from the environment. A .env file in the working
// directory is loaded first if present; variables already set win.
func LoadConfig() (Config, error) {
	dotenvLoaded.Do(func() {
		// The .env file is optional
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Shards <= 0 {
		return fmt.Errorf("%w: shards must be positive, got %d", ErrInvalidConfig, c.Shards)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Options converts the config into dispatcher options, with logs written to w.
func (c Config) Options(w io.Writer) ([]Option, error) {
	logger, err := NewLogger(w, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithName(c.Name),
		WithShards(c.Shards),
		WithLogger(logger),
	}, nil
}
