package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Environment    string   `env:"ENV" envDefault:"development"`
	Host           string   `env:"HOST" envDefault:"http://localhost:8080"` // Public origin of this front-end, used for redirects
	AllowedHost    string   `env:"-"`                                      // Hostname only for strict host check (production only)
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	RedisURI      string `env:"REDIS_URI" envDefault:"redis://localhost:6379/0"`
	EncryptionKey string `env:"ENCRYPTION_KEY"` // base64 32 bytes, seals identity tokens at rest

	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:4943"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`

	// II_URL may contain "{origin}", replaced with Host.
	IdentityProviderURL string   `env:"II_URL" envDefault:"{origin}/idp"`
	IDPTokenURL         string   `env:"IDP_TOKEN_URL"`
	IDPLogoutURL        string   `env:"IDP_LOGOUT_URL"`
	IDPClientID         string   `env:"IDP_CLIENT_ID" envDefault:"gather"`
	IDPClientSecret     string   `env:"IDP_CLIENT_SECRET"`
	IDPTokenSecret      string   `env:"IDP_TOKEN_SECRET"` // HS256 key for id_token verification
	IDPScopes           []string `env:"IDP_SCOPES" envSeparator:"," envDefault:"openid"`

	GatheringCacheTTL time.Duration `env:"GATHERING_CACHE_TTL" envDefault:"5m"`

	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses the environment. godotenv should have run before.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.Host = strings.TrimRight(strings.TrimSpace(cfg.Host), "/")

	// AllowedHost is only set in production; host check is skipped in development
	if cfg.IsProduction() {
		cfg.AllowedHost = hostname(cfg.Host)
	}

	cfg.AllowedOrigins = parseOrigins(strings.Join(cfg.AllowedOrigins, ","))
	if !containsOrigin(cfg.AllowedOrigins, cfg.Host) {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.Host)
	}
	return cfg, nil
}

// IdentityProviderAuthURL expands the {origin} placeholder in II_URL.
func (c *Config) IdentityProviderAuthURL() string {
	return strings.ReplaceAll(c.IdentityProviderURL, "{origin}", c.Host)
}

// IdentityProviderTokenURL defaults to <auth url>/token.
func (c *Config) IdentityProviderTokenURL() string {
	if c.IDPTokenURL != "" {
		return strings.ReplaceAll(c.IDPTokenURL, "{origin}", c.Host)
	}
	return strings.TrimRight(c.IdentityProviderAuthURL(), "/") + "/token"
}

// CallbackURL is where the identity provider sends the browser back.
func (c *Config) CallbackURL() string {
	return c.Host + "/auth/callback"
}

// CloudinaryEnabled reports whether all upload credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func hostname(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !containsOrigin(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}
