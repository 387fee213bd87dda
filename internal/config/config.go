package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PT"

// Config holds the front-end server configuration.
type Config struct {
	Port           string        `mapstructure:"port"`
	BackendURL     string        `mapstructure:"backend_url"`
	SearchPath     string        `mapstructure:"search_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RedisURL       string        `mapstructure:"redis_url"`
	RedisDB        int           `mapstructure:"redis_db"`
	SequenceTTL    time.Duration `mapstructure:"sequence_ttl"`
	Views          int           `mapstructure:"views"`
	TrackedPerView int           `mapstructure:"tracked_per_view"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Port:           "8085",
		BackendURL:     "http://localhost:5000",
		SearchPath:     "/search",
		RequestTimeout: 10 * time.Second,
		RedisURL:       "",
		RedisDB:        0,
		SequenceTTL:    30 * time.Minute,
		Views:          10000,
		TrackedPerView: 512,
		RateLimit:      10,
		RateBurst:      20,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if c.BackendURL == "" {
		return fmt.Errorf("backend URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("backend URL must use http or https")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("backend URL must include a host")
	}

	if !strings.HasPrefix(c.SearchPath, "/") {
		return fmt.Errorf("search path must start with /")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis db cannot be negative")
	}
	if c.SequenceTTL < 0 {
		return fmt.Errorf("sequence ttl cannot be negative")
	}
	if c.Views <= 0 {
		return fmt.Errorf("views must be positive")
	}
	if c.TrackedPerView <= 0 {
		return fmt.Errorf("tracked per view must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateBurst <= 0 {
		return fmt.Errorf("rate burst must be positive")
	}

	return nil
}

// Load reads .env (if present), then flags from args, then PT_* environment
// variables. The legacy PORT, REDIS_URL and REDIS_DB variables are honoured.
// Flags given explicitly win over the environment.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	def := DefaultConfig()
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.String("port", def.Port, "HTTP listen port")
	flags.String("backend-url", def.BackendURL, "base URL of the backend API")
	flags.String("search-path", def.SearchPath, "path the search page is served on")
	flags.Duration("request-timeout", def.RequestTimeout, "deadline for each backend request")
	flags.String("redis-url", def.RedisURL, "Redis URL for shared request sequences (empty: in-process)")
	flags.Int("redis-db", def.RedisDB, "Redis database number")
	flags.Duration("sequence-ttl", def.SequenceTTL, "how long an idle view's sequence is kept in Redis")
	flags.Int("views", def.Views, "page views kept in memory")
	flags.Int("tracked-per-view", def.TrackedPerView, "tracked flags kept per page view")
	flags.Float64("rate-limit", def.RateLimit, "requests per second allowed per client IP")
	flags.Int("rate-burst", def.RateBurst, "burst allowed per client IP")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		_ = v.BindPFlag(key, f)
	})
	_ = v.BindEnv("port", envPrefix+"_PORT", "PORT")
	_ = v.BindEnv("redis_url", envPrefix+"_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("redis_db", envPrefix+"_REDIS_DB", "REDIS_DB")

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
