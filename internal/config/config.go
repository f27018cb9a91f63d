// Package config reads server settings from the environment, optionally
// pre-populated from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments selected by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers selected by STORAGE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Env  string
	Port int

	StorageDriver string
	DBPath        string

	SessionSecret string
	SessionTTL    time.Duration

	RegionRestartDelay time.Duration
	GridRestartDelay   time.Duration

	SeedSampleData bool
	AdminUsername  string
	AdminPassword  string
	AdminEmail     string

	AllowedOrigins []string
	SentryDSN      string
}

// Production reports whether APP_ENV selects the production profile.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// DotFile is the dotenv file matching the APP_ENV of the process.
func DotFile() string {
	if os.Getenv("APP_ENV") == EnvProduction {
		return ".env.production"
	}
	return ".env.development"
}

// Load merges dotFile into the environment (variables already set win) and
// parses the result. A missing dotFile is not an error.
func Load(dotFile string) (Config, error) {
	if dotFile != "" {
		if err := godotenv.Load(dotFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", dotFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}

	cfg := Config{
		Env:                p.str("APP_ENV", EnvDevelopment),
		Port:               p.integer("PORT", 8080),
		StorageDriver:      strings.ToLower(p.str("STORAGE_DRIVER", DriverMemory)),
		DBPath:             p.str("DB_PATH", "data/gridmanager.db"),
		SessionSecret:      p.str("SESSION_SECRET", ""),
		SessionTTL:         p.duration("SESSION_TTL", 24*time.Hour),
		RegionRestartDelay: p.duration("REGION_RESTART_DELAY", 3*time.Second),
		GridRestartDelay:   p.duration("GRID_RESTART_DELAY", time.Second),
		SeedSampleData:     p.boolean("SEED_SAMPLE_DATA", true),
		AdminUsername:      p.str("ADMIN_USERNAME", ""),
		AdminPassword:      p.str("ADMIN_PASSWORD", ""),
		AdminEmail:         p.str("ADMIN_EMAIL", "admin@example.com"),
		AllowedOrigins:     p.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		SentryDSN:          p.str("SENTRY_DSN", ""),
	}

	if len(p.errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(p.errs...))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.StorageDriver != DriverMemory && c.StorageDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverMemory, DriverSQLite, c.StorageDriver))
	}
	if len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 16 characters"))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return def
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p *parser) list(key string, def []string) []string {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
