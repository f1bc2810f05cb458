// Package config provides Viper-based configuration for the dashboard.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix     = "DASHBOARD"
	configPathEnv = "DASHBOARD_CONFIG"

	// APIKeyEnv is the secret the search API key is read from.
	APIKeyEnv = "NEWSAPI_API_KEY"
)

// Config holds every setting the dashboard needs at process start.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NewsAPI    NewsAPIConfig    `mapstructure:"newsapi"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Session    SessionConfig    `mapstructure:"session"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Publishers PublishersConfig `mapstructure:"publishers"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is dashboard requests per second allowed per client IP.
	// Zero disables limiting.
	RateLimit    float64 `mapstructure:"rate_limit"`
	RateBurst    int     `mapstructure:"rate_burst"`
	SecureCookie bool    `mapstructure:"secure_cookie"`
}

// NewsAPIConfig configures the external search API.
type NewsAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DashboardConfig holds presentation settings.
type DashboardConfig struct {
	PlaceholderImage string `mapstructure:"placeholder_image"`
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// ScraperConfig controls og:image enrichment for image-less articles.
type ScraperConfig struct {
	EnrichImages bool `mapstructure:"enrich_images"`
	MaxWorkers   int  `mapstructure:"max_workers"`
	// Timeout bounds the whole enrichment step of one request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PublishersConfig points at an optional publishers registry file and bounds
// background delivery of article events.
type PublishersConfig struct {
	File      string        `mapstructure:"file"`
	QueueSize int           `mapstructure:"queue_size"`
	Workers   int           `mapstructure:"workers"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads an optional config file and environment variables. cfgFile
// overrides DASHBOARD_CONFIG; with neither set, ./dashboard.yaml is used when
// present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile == "" {
		cfgFile = os.Getenv(configPathEnv)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The secret is also accepted under its unprefixed name.
	if err := v.BindEnv("newsapi.api_key", envPrefix+"_NEWSAPI_API_KEY", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.secure_cookie", false)

	v.SetDefault("newsapi.base_url", "https://newsapi.org")
	v.SetDefault("newsapi.api_key", "")
	v.SetDefault("newsapi.timeout", 10*time.Second)

	v.SetDefault("dashboard.placeholder_image", "https://via.placeholder.com/300")

	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.max_sessions", 1024)

	v.SetDefault("scraper.enrich_images", false)
	v.SetDefault("scraper.max_workers", 4)
	v.SetDefault("scraper.timeout", 5*time.Second)

	v.SetDefault("publishers.file", "")
	v.SetDefault("publishers.queue_size", 256)
	v.SetDefault("publishers.workers", 2)
	v.SetDefault("publishers.timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) normalize() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.NewsAPI.BaseURL = strings.TrimRight(strings.TrimSpace(c.NewsAPI.BaseURL), "/")
	c.NewsAPI.APIKey = strings.TrimSpace(c.NewsAPI.APIKey)
	c.Dashboard.PlaceholderImage = strings.TrimSpace(c.Dashboard.PlaceholderImage)
	c.Publishers.File = strings.TrimSpace(c.Publishers.File)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks the settings that would otherwise fail late at runtime.
// A missing API key is allowed: searches then fail and surface inline.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_burst must be positive when rate limiting, got %d", c.Server.RateBurst)
	}
	u, err := url.Parse(c.NewsAPI.BaseURL)
	if err != nil {
		return fmt.Errorf("newsapi.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("newsapi.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.NewsAPI.Timeout <= 0 {
		return fmt.Errorf("newsapi.timeout must be positive, got %s", c.NewsAPI.Timeout)
	}
	if c.Dashboard.PlaceholderImage == "" {
		return errors.New("dashboard.placeholder_image is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be positive, got %d", c.Session.MaxSessions)
	}
	if c.Scraper.EnrichImages && c.Scraper.MaxWorkers <= 0 {
		return fmt.Errorf("scraper.max_workers must be positive, got %d", c.Scraper.MaxWorkers)
	}
	if c.Scraper.EnrichImages && c.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be positive, got %s", c.Scraper.Timeout)
	}
	if c.Publishers.File != "" {
		if c.Publishers.QueueSize <= 0 {
			return fmt.Errorf("publishers.queue_size must be positive, got %d", c.Publishers.QueueSize)
		}
		if c.Publishers.Workers <= 0 {
			return fmt.Errorf("publishers.workers must be positive, got %d", c.Publishers.Workers)
		}
		if c.Publishers.Timeout <= 0 {
			return fmt.Errorf("publishers.timeout must be positive, got %s", c.Publishers.Timeout)
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// HasAPIKey reports whether a search API key was provided.
func (c *Config) HasAPIKey() bool {
	return c.NewsAPI.APIKey != ""
}
