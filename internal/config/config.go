// Package config loads service configuration from environment variables and
// an optional YAML file. Every third-party credential is optional: a missing
// key disables that connector instead of failing startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = ":8090"
	defaultReadTimeout   = 10 * time.Second
	defaultWriteTimeout  = 5 * time.Minute // ingestion runs are slow by design
	defaultHTTPTimeout   = 15 * time.Second
	defaultMaxRetries    = 3
	defaultDedupWindow   = 30 * 24 * time.Hour
)

// Config is the root configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Ingest      IngestConfig   `mapstructure:"ingest"`
	Sources     SourcesConfig  `mapstructure:"sources"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"` // optional; empty disables the run lock
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// IngestConfig covers the trigger endpoint secrets and pipeline tuning.
type IngestConfig struct {
	CronSecret    string        `mapstructure:"cron_secret"`
	ScraperAPIKey string        `mapstructure:"scraper_api_key"`
	Schedule      string        `mapstructure:"schedule"` // cron expression, empty disables
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	DedupWindow   time.Duration `mapstructure:"dedup_window"`
	OpenAIKey     string        `mapstructure:"openai_key"`
}

// SourcesConfig carries per-provider credentials and search defaults.
type SourcesConfig struct {
	GooglePlacesKey  string  `mapstructure:"google_places_key"`
	FoursquareKey    string  `mapstructure:"foursquare_key"`
	YelpKey          string  `mapstructure:"yelp_key"`
	EventbriteToken  string  `mapstructure:"eventbrite_token"`
	PredictHQToken   string  `mapstructure:"predicthq_token"`
	BandsintownAppID string  `mapstructure:"bandsintown_app_id"`
	RedditUserAgent  string  `mapstructure:"reddit_user_agent"`
	Latitude         float64 `mapstructure:"latitude"`
	Longitude        float64 `mapstructure:"longitude"`
	RadiusMeters     int     `mapstructure:"radius_meters"`
	Query            string  `mapstructure:"query"`

	// HTML carries scrape targets for the selector-cascade scraper.
	HTML []HTMLSource `mapstructure:"html"`
}

// HTMLSource is one HTML scrape target. Browser selects the headless-Chrome
// path for pages that render their listings with JavaScript.
type HTMLSource struct {
	Name           string `mapstructure:"name"`
	URL            string `mapstructure:"url"`
	RatePerMinute  int    `mapstructure:"rate_per_minute"`
	RequireKeyword bool   `mapstructure:"require_keyword"`
	Browser        bool   `mapstructure:"browser"`
}

// Load reads .env (when present), config.yaml (when present) and the
// environment, in increasing precedence of environment over file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("VENUZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.address", defaultServerAddress)
	v.SetDefault("server.read_timeout", defaultReadTimeout)
	v.SetDefault("server.write_timeout", defaultWriteTimeout)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("ingest.cron_secret", "")
	v.SetDefault("ingest.scraper_api_key", "")
	v.SetDefault("ingest.schedule", "")
	v.SetDefault("ingest.openai_key", "")
	v.SetDefault("ingest.http_timeout", defaultHTTPTimeout)
	v.SetDefault("ingest.max_retries", defaultMaxRetries)
	v.SetDefault("ingest.dedup_window", defaultDedupWindow)
	// Credential keys need registering so env-only values survive Unmarshal.
	v.SetDefault("sources.google_places_key", "")
	v.SetDefault("sources.foursquare_key", "")
	v.SetDefault("sources.yelp_key", "")
	v.SetDefault("sources.eventbrite_token", "")
	v.SetDefault("sources.predicthq_token", "")
	v.SetDefault("sources.bandsintown_app_id", "")
	v.SetDefault("sources.latitude", 20.6534)   // Puerto Vallarta
	v.SetDefault("sources.longitude", -105.2253)
	v.SetDefault("sources.radius_meters", 10000)
	v.SetDefault("sources.query", "nightlife bars clubs restaurants")
	v.SetDefault("sources.reddit_user_agent", "VenuzBot/2.0")
}

// Validate checks required fields and normalizes defaults.
func (c *Config) Validate() error {
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Ingest.MaxRetries < 0 {
		return errors.New("ingest.max_retries must be >= 0")
	}
	return nil
}

// IsProduction reports whether stack traces should be suppressed in API
// error responses.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
