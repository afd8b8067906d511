package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"accounts"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Signing secrets, one per token kind
	ActivationSecret string `env:"JWT_ACCOUNT_ACTIVATION"`
	SessionSecret    string `env:"JWT_SECRET"`
	ResetSecret      string `env:"JWT_RESET_PASSWORD"`

	ActivationExpiry time.Duration `env:"JWT_ACTIVATION_EXPIRY" envDefault:"15m"`
	SessionExpiry    time.Duration `env:"JWT_SESSION_EXPIRY" envDefault:"168h"`
	ResetExpiry      time.Duration `env:"JWT_RESET_EXPIRY" envDefault:"10m"`

	// Mail
	MailKey   string `env:"MAIL_KEY"`
	EmailFrom string `env:"EMAIL_FROM"`
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	// Federated login
	GoogleClientID   string `env:"GOOGLE_CLIENT"`
	GoogleCertsURL   string `env:"GOOGLE_CERTS_URL"`
	FacebookGraphURL string `env:"FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com/v2.11"`

	// Server
	Port        string `env:"PORT" envDefault:"5000"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	// Observability
	SentryDSN        string `env:"SENTRY_DSN"`
	AppEnv           string `env:"APP_ENV" envDefault:"development"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" envDefault:"30"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return cfg, nil
}

// Validate reports every required setting that is missing and any signing
// secret shared between token kinds.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"DB_PASSWORD", c.DBPassword},
		{"JWT_ACCOUNT_ACTIVATION", c.ActivationSecret},
		{"JWT_SECRET", c.SessionSecret},
		{"JWT_RESET_PASSWORD", c.ResetSecret},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s environment variable is required", r.name))
		}
	}

	// Each token kind needs its own secret.
	secrets := required[1:]
	for i := range secrets {
		for j := i + 1; j < len(secrets); j++ {
			if secrets[i].value != "" && secrets[i].value == secrets[j].value {
				errs = append(errs, fmt.Errorf("%s and %s must differ", secrets[i].name, secrets[j].name))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ActivationURL is the client page that consumes an activation token.
func (c *Config) ActivationURL(token string) string {
	return c.ClientURL + "/users/activate/" + token
}

// ResetURL is the client page that consumes a reset token.
func (c *Config) ResetURL(token string) string {
	return c.ClientURL + "/users/password/reset/" + token
}
