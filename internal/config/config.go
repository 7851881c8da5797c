package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ferry console
type Config struct {
	Server        ServerConfig
	Backend       BackendConfig
	Session       SessionConfig
	Notifications NotificationsConfig
	UI            UIConfig
	Redis         RedisConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Kafka         KafkaConfig
	Storage       StorageConfig
	Weather       WeatherConfig
	Logging       LoggingConfig
	Metrics       MetricsConfig
}

// ServerConfig holds gateway server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TrustedProxies may set X-Forwarded-For; empty trusts no proxy
	TrustedProxies []string
}

// BackendConfig holds configuration for the ferry backend REST API
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// SessionConfig controls how the session token is found and attached
type SessionConfig struct {
	CookieName   string
	MissingToken string
	// Token is only read by the console: a raw token or a Cookie header value
	Token string
}

// NotificationsConfig holds notification polling configuration
type NotificationsConfig struct {
	PollInterval time.Duration
}

// UIConfig holds presentation defaults
type UIConfig struct {
	BannerTTL   time.Duration
	PageSize    int
	MaxPageSize int
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
	// ClientIPHeaderName keys clients by a header set by a fronting proxy.
	// Leave empty unless every request passes through that proxy.
	ClientIPHeaderName string
}

// KafkaConfig holds audit event publishing configuration
type KafkaConfig struct {
	Brokers  string
	Topic    string
	ClientID string
}

// BrokerList splits the comma separated broker list
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// StorageConfig holds ticket archive configuration
type StorageConfig struct {
	Type  string
	Local LocalStorageConfig
	S3    S3StorageConfig
}

// LocalStorageConfig holds local filesystem archive configuration
type LocalStorageConfig struct {
	Path string
}

// S3StorageConfig holds S3 archive configuration
type S3StorageConfig struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Prefix    string
}

// WeatherConfig holds the weather provider configuration
type WeatherConfig struct {
	URL    string
	APIKey string
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// LoadConfig loads the configuration from an optional file and environment variables.
// An empty path or a missing file falls back to defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Environment variables override, e.g. FERRY_BACKEND_URL
	v.SetEnvPrefix("ferry")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.MissingToken {
	case "reject", "bearer-null", "omit":
	default:
		return fmt.Errorf("invalid session.missingToken %q", c.Session.MissingToken)
	}
	switch c.Storage.Type {
	case "none", "local", "s3":
	default:
		return fmt.Errorf("invalid storage.type %q", c.Storage.Type)
	}
	if c.Backend.URL == "" {
		return errors.New("backend.url is required")
	}
	if c.UI.PageSize < 1 || c.UI.MaxPageSize < c.UI.PageSize {
		return fmt.Errorf("invalid page sizes %d/%d", c.UI.PageSize, c.UI.MaxPageSize)
	}
	if c.Notifications.PollInterval <= 0 {
		return fmt.Errorf("notifications.pollInterval must be positive, got %s", c.Notifications.PollInterval)
	}
	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("invalid rate limit %d/min burst %d", c.RateLimit.RequestsPerMinute, c.RateLimit.BurstSize)
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")
	v.SetDefault("server.trustedProxies", []string{})

	// Backend defaults
	v.SetDefault("backend.url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", "30s")

	// Session defaults
	v.SetDefault("session.cookieName", "__session")
	v.SetDefault("session.missingToken", "reject")
	v.SetDefault("session.token", "")

	v.SetDefault("notifications.pollInterval", "30s")

	// UI defaults
	v.SetDefault("ui.bannerTTL", "5s")
	v.SetDefault("ui.pageSize", 10)
	v.SetDefault("ui.maxPageSize", 100)

	// Redis, cache and rate limit defaults
	v.SetDefault("redis.url", "")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "1m")
	v.SetDefault("cache.prefix", "ferry-console")
	v.SetDefault("rateLimit.enabled", false)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.burstSize", 20)
	v.SetDefault("rateLimit.clientIPHeaderName", "")

	// Kafka defaults
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "ferry-console-audit")
	v.SetDefault("kafka.clientID", "ferry-console")

	// Storage defaults
	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.local.path", "./data/tickets")
	v.SetDefault("storage.s3.region", "eu-central-1")
	v.SetDefault("storage.s3.prefix", "tickets")

	// Weather defaults
	v.SetDefault("weather.url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.apiKey", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
}
