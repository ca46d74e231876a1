package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	strs "market/pkg/platform/strings"
)

// DevSigningKey is used when JWT_SECRET is unset. Production refuses it.
const DevSigningKey = "dev-secret-key-change-in-production"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Server captures all process configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// ClientURLs are the allowed CORS origins, from comma-separated CLIENT_URL.
	ClientURLs []string
	SeedFile   string
	BodyLimit  int64
	// TrustedProxies are the peers whose X-Forwarded-For is believed. Empty
	// means the socket address is the client address.
	TrustedProxies []netip.Prefix

	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	BcryptCost    int
}

type DatabaseConfig struct {
	URL string
}

// RedisConfig holds connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RateLimitConfig struct {
	Disabled    bool
	Window      time.Duration
	MaxRequests int
}

// AuditConfig selects the audit sink. No brokers means audit goes to the log.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
}

func (s Server) IsProduction() bool { return s.Environment == EnvProduction }

// UsesDevSigningKey reports whether the built-in development key is active.
func (s Server) UsesDevSigningKey() bool { return s.Auth.JWTSigningKey == DevSigningKey }

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getEnv("ADDR", ":5000"),
		Environment: getEnv("ENVIRONMENT", EnvDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ClientURLs:  originList(getEnv("CLIENT_URL", "http://localhost:3000")),
		SeedFile:    os.Getenv("SEED_FILE"),
		BodyLimit:   10 << 20,
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SECRET", DevSigningKey),
			JWTIssuer:     getEnv("JWT_ISSUER", "market"),
		},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnv("AUDIT_TOPIC", "market.audit"),
		},
	}

	var errs []error
	var err error
	if cfg.Auth.TokenTTL, err = durationEnv("JWT_EXPIRE", 30*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.Auth.BcryptCost, err = intEnv("BCRYPT_COST", 12); err != nil {
		errs = append(errs, err)
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimit.Window, err = durationEnv("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimit.MaxRequests, err = intEnv("RATE_LIMIT_MAX", 100); err != nil {
		errs = append(errs, err)
	}
	cfg.RateLimit.Disabled = os.Getenv("RATE_LIMIT_DISABLED") == "true"
	if cfg.TrustedProxies, err = prefixList(os.Getenv("TRUSTED_PROXIES")); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that must never run.
func (s Server) Validate() error {
	if s.IsProduction() && s.UsesDevSigningKey() {
		return errors.New("JWT_SECRET must be set in production")
	}
	if len(s.Auth.JWTSigningKey) < 16 {
		return errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if s.Auth.TokenTTL <= 0 {
		return errors.New("JWT_EXPIRE must be positive")
	}
	if s.RateLimit.MaxRequests <= 0 || s.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// durationEnv accepts Go durations ("15m") and the day shorthand ("30d").
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return strs.DedupeAndTrim(strings.Split(v, ","))
}

// originList lowercases as well; origins compare case-insensitively.
func originList(v string) []string {
	return strs.DedupeAndTrimLower(strings.Split(v, ","))
}

// prefixList parses comma-separated CIDRs; a bare address is a single host.
func prefixList(v string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range splitList(v) {
		if p, err := netip.ParsePrefix(item); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", item)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
