package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MemoryDatabase selects the in-memory store instead of a SQL database.
const MemoryDatabase = "memory"

type AppConfig struct {
	Port        string `env:"PORT" envDefault:"3001"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"city-explorer.db"`

	GeocodeAPIKey    string `env:"GEOCODE_API_KEY"`
	WeatherAPIKey    string `env:"WEATHER_API_KEY"`
	EventbriteAPIKey string `env:"EVENTBRITE_API_KEY"`
	MovieAPIKey      string `env:"MOVIE_API_KEY"`

	GeocodeBaseURL string `env:"GEOCODE_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/geocode/json"`
	WeatherBaseURL string `env:"WEATHER_BASE_URL" envDefault:"https://api.darksky.net/forecast"`
	EventsBaseURL  string `env:"EVENTS_BASE_URL" envDefault:"https://www.eventbriteapi.com/v3/events/search/"`
	MoviesBaseURL  string `env:"MOVIES_BASE_URL" envDefault:"https://api.themoviedb.org/3/search/movie"`

	// ProviderTimeout bounds one provider call, retries included.
	ProviderTimeout    time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	ProviderMaxRetries int           `env:"PROVIDER_MAX_RETRIES" envDefault:"2"`
	DedupeInflight     bool          `env:"DEDUPE_INFLIGHT" envDefault:"false"`

	// WarmLocations are search queries refreshed in the background every WarmInterval.
	WarmLocations []string      `env:"WARM_LOCATIONS" envSeparator:","`
	WarmInterval  time.Duration `env:"WARM_INTERVAL" envDefault:"1h"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// UsesMemoryStore reports whether DATABASE_URL asks for the in-memory store.
func (c *AppConfig) UsesMemoryStore() bool {
	return strings.EqualFold(strings.TrimSpace(c.DatabaseURL), MemoryDatabase)
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.WarmLocations = cleanList(cfg.WarmLocations)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid PROVIDER_TIMEOUT: %s", c.ProviderTimeout))
	}
	if c.ProviderMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("invalid PROVIDER_MAX_RETRIES: %d", c.ProviderMaxRetries))
	}
	if len(c.WarmLocations) > 0 && c.WarmInterval < time.Minute {
		errs = append(errs, fmt.Errorf("invalid WARM_INTERVAL: %s (minimum 1m)", c.WarmInterval))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// cleanList trims entries and drops blanks.
func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
