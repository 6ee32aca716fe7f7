package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"3000"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	AuthProvider string        `envconfig:"AUTH_PROVIDER" default:"local"`
	AuthURL      string        `envconfig:"AUTH_URL"`
	AuthAPIKey   string        `envconfig:"AUTH_API_KEY"`

	CookieDomain string `envconfig:"COOKIE_DOMAIN"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"true"`

	ClientURL      string   `envconfig:"CLIENT_URL"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	LoginRateLimit        int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	ReminderInterval      time.Duration `envconfig:"REMINDER_INTERVAL" default:"15m"`
	NotificationRetention time.Duration `envconfig:"NOTIFICATION_RETENTION" default:"720h"`
	RetentionInterval     time.Duration `envconfig:"RETENTION_INTERVAL" default:"6h"`
}

const (
	ProviderLocal  = "local"
	ProviderGoTrue = "gotrue"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}

	switch c.AuthProvider {
	case ProviderLocal:
	case ProviderGoTrue:
		if c.AuthURL == "" || c.AuthAPIKey == "" {
			return errors.New("AUTH_URL and AUTH_API_KEY are required when AUTH_PROVIDER=gotrue")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.LoginRateLimit <= 0 {
		return errors.New("LOGIN_RATE_LIMIT must be positive")
	}

	return nil
}

// Origins returns the CORS/websocket origin allow-list.
func (c *Config) Origins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if c.ClientURL != "" {
		origins = append(origins, c.ClientURL)
	}

	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
