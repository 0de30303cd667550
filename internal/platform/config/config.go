package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = 3001
	defaultBindRetries  = 5
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultCurrency     = "usd"
	defaultEnvironment  = "development"
)

// defaultAllowedOrigins mirror the local dev frontends the service is used with.
var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

// Config captures all runtime configuration organised by concern. It is loaded
// once at startup and injected; handlers never read the process environment.
type Config struct {
	Server      ServerConfig
	Stripe      StripeConfig
	CORS        CORSConfig
	Environment string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         int
	BindRetries  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StripeConfig collects payment gateway credentials and currency settings.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	Currency       string
}

// CORSConfig lists the browser origins accepted by the service.
type CORSConfig struct {
	AllowedOrigins []string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables. A missing Stripe secret key is fatal:
// the process must refuse to start rather than serve degraded requests.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         intWithDefault(lookup, "PORT", defaultPort),
			BindRetries:  intWithDefault(lookup, "PORT_BIND_RETRIES", defaultBindRetries),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Stripe: StripeConfig{
			SecretKey:      stringWithDefault(lookup, "STRIPE_SECRET_KEY", ""),
			PublishableKey: stringWithDefault(lookup, "STRIPE_PUBLISHABLE_KEY", ""),
			Currency:       strings.ToLower(stringWithDefault(lookup, "CHECKOUT_CURRENCY", defaultCurrency)),
		},
		CORS: CORSConfig{
			AllowedOrigins: allowedOrigins(lookup),
		},
		Environment: strings.ToLower(stringWithDefault(lookup, "APP_ENV", defaultEnvironment)),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// allowedOrigins merges the configured allow-list with the deployed frontend URL,
// falling back to the local dev origins when nothing is configured.
func allowedOrigins(lookup func(string) (string, bool)) []string {
	origins := csvWithDefault(lookup, "ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	if frontend := stringWithDefault(lookup, "FRONTEND_URL", ""); frontend != "" {
		origins = append(origins, frontend)
	}

	seen := make(map[string]struct{}, len(origins))
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		key := strings.ToLower(origin)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, origin)
	}
	return out
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		missing = append(missing, "Stripe.SecretKey")
	}
	if cfg.Stripe.Currency == "" {
		missing = append(missing, "Stripe.Currency")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.BindRetries < 0 {
		missing = append(missing, "Server.BindRetries")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
