package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultOverpassURL       = "https://overpass-api.de/api/interpreter"
	DefaultNominatimURL      = "https://nominatim.openstreetmap.org/reverse"
	DefaultUserAgent         = "PostoFinder/1.0"
	DefaultSearchRadius      = 5000.0
	MaxSearchRadius          = 50000.0
	DefaultEnrichConcurrency = 20
)

type Config struct {
	Environment        string
	LogLevel           zerolog.Level
	HTTPTimeout        time.Duration
	OverpassURL        string
	NominatimURL       string
	UserAgent          string
	EnrichTimeout      time.Duration
	EnrichConcurrency  int
	NominatimRateLimit float64
	SearchRadius       float64
	Port               int
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithOverpassURL(u string) Option {
	return func(c *Config) {
		c.OverpassURL = u
	}
}

func WithNominatimURL(u string) Option {
	return func(c *Config) {
		c.NominatimURL = u
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithEnrichTimeout bounds each reverse geocoding call
func WithEnrichTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.EnrichTimeout = timeout
	}
}

func WithEnrichConcurrency(n int) Option {
	return func(c *Config) {
		c.EnrichConcurrency = n
	}
}

// WithNominatimRateLimit sets requests per second, 0 means unlimited
func WithNominatimRateLimit(perSecond float64) Option {
	return func(c *Config) {
		c.NominatimRateLimit = perSecond
	}
}

// WithSearchRadius sets the default search radius in meters
func WithSearchRadius(meters float64) Option {
	return func(c *Config) {
		c.SearchRadius = meters
	}
}

func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:       "production",
		LogLevel:          zerolog.InfoLevel,
		HTTPTimeout:       30 * time.Second,
		OverpassURL:       DefaultOverpassURL,
		NominatimURL:      DefaultNominatimURL,
		UserAgent:         DefaultUserAgent,
		EnrichTimeout:     5 * time.Second,
		EnrichConcurrency: DefaultEnrichConcurrency,
		SearchRadius:      DefaultSearchRadius,
		Port:              8080,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// ValidSearchRadius reports whether meters lies in (0, MaxSearchRadius].
// NaN is rejected.
func ValidSearchRadius(meters float64) bool {
	return meters > 0 && meters <= MaxSearchRadius
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.EnrichTimeout <= 0 {
		errs = append(errs, fmt.Errorf("enrich timeout must be positive, got %s", c.EnrichTimeout))
	}
	if c.EnrichConcurrency < 1 {
		errs = append(errs, fmt.Errorf("enrich concurrency must be at least 1, got %d", c.EnrichConcurrency))
	}
	if !ValidSearchRadius(c.SearchRadius) {
		errs = append(errs, fmt.Errorf("search radius must be in (0, %.0f], got %g", MaxSearchRadius, c.SearchRadius))
	}
	if c.NominatimRateLimit < 0 {
		errs = append(errs, fmt.Errorf("nominatim rate limit must not be negative, got %g", c.NominatimRateLimit))
	}
	if c.OverpassURL == "" {
		errs = append(errs, errors.New("overpass url is required"))
	}
	if c.NominatimURL == "" {
		errs = append(errs, errors.New("nominatim url is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be 1-65535, got %d", c.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables, a .env file
// and an optional postofinder.yaml, in that order of precedence.
func LoadFromEnv() *Config {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	v.SetDefault("env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("overpass_url", DefaultOverpassURL)
	v.SetDefault("nominatim_url", DefaultNominatimURL)
	v.SetDefault("user_agent", DefaultUserAgent)

	v.SetConfigName("postofinder")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn().Err(err).Msg("Ignoring unreadable config file")
		}
	}

	v.AutomaticEnv()

	return New(
		WithEnvironment(v.GetString("env")),
		WithLogLevel(v.GetString("log_level")),
		WithHTTPTimeout(getDuration(v, "http_timeout", 30*time.Second)),
		WithOverpassURL(v.GetString("overpass_url")),
		WithNominatimURL(v.GetString("nominatim_url")),
		WithUserAgent(v.GetString("user_agent")),
		WithEnrichTimeout(getDuration(v, "enrich_timeout", 5*time.Second)),
		WithEnrichConcurrency(getInt(v, "enrich_concurrency", DefaultEnrichConcurrency)),
		WithNominatimRateLimit(getFloat(v, "nominatim_rate_limit", 0)),
		WithSearchRadius(getFloat(v, "search_radius_meters", DefaultSearchRadius)),
		WithPort(getInt(v, "port", 8080)),
	)
}

func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if value := v.GetString(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration in configuration, using default")
	}
	return defaultValue
}

func getInt(v *viper.Viper, key string, defaultValue int) int {
	if value := v.GetString(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer in configuration, using default")
	}
	return defaultValue
}

func getFloat(v *viper.Viper, key string, defaultValue float64) float64 {
	if value := v.GetString(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid number in configuration, using default")
	}
	return defaultValue
}
