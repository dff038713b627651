package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"handyman.db"`

	// Sessions are kept in memory when RedisAddr is empty.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	// email=refresh_token pairs, comma separated.
	GoogleAuthorizedAccounts map[string]string `env:"GOOGLE_AUTHORIZED_ACCOUNTS" envSeparator:"," envKeyValSeparator:"="`

	FederatedVerifier string `env:"FEDERATED_VERIFIER" envDefault:"google"`
	KeycloakIssuer    string `env:"KEYCLOAK_ISSUER"`
	KeycloakClientID  string `env:"KEYCLOAK_CLIENT_ID"`

	FacebookAppID       string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret   string `env:"FACEBOOK_APP_SECRET"`
	FacebookRedirectURL string `env:"FACEBOOK_REDIRECT_URL"`
	FacebookGraphURL    string `env:"FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com/v19.0"`
}

// Load reads files (".env" when none are given) into the environment
// without overriding variables already set, then parses and validates the
// configuration.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoogleEnabled reports whether federated sign-in through Google is
// configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// FacebookEnabled reports whether social sign-in through Facebook is
// configured.
func (c Config) FacebookEnabled() bool {
	return c.FacebookAppID != ""
}

func (c Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.AppPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %q", c.AppPort))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	switch c.FederatedVerifier {
	case "google":
		if len(c.GoogleAuthorizedAccounts) > 0 && (c.GoogleClientID == "" || c.GoogleClientSecret == "") {
			errs = append(errs, errors.New("GOOGLE_AUTHORIZED_ACCOUNTS requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET"))
		}
	case "keycloak":
		if c.KeycloakIssuer == "" || c.KeycloakClientID == "" {
			errs = append(errs, errors.New("FEDERATED_VERIFIER=keycloak requires KEYCLOAK_ISSUER and KEYCLOAK_CLIENT_ID"))
		}
	default:
		errs = append(errs, fmt.Errorf("FEDERATED_VERIFIER must be google or keycloak, got %q", c.FederatedVerifier))
	}

	if c.FacebookEnabled() && (c.FacebookAppSecret == "" || c.FacebookRedirectURL == "") {
		errs = append(errs, errors.New("FACEBOOK_APP_ID requires FACEBOOK_APP_SECRET and FACEBOOK_REDIRECT_URL"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
