package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the ledgerd runtime settings, loaded from the
// environment.
type Config struct {
	Environment  string
	Addr         string
	MetricsAddr  string
	MaxBodyBytes int64
	IPAllowlist  []string
}

const defaultMaxBodyBytes = 1 << 20

// Load reads configuration from environment variables, applying
// development defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:  getenv("APP_ENV", "development"),
		Addr:         getenv("LEDGER_ADDR", ":8080"),
		MetricsAddr:  getenv("LEDGER_METRICS_ADDR", ":9090"),
		MaxBodyBytes: defaultMaxBodyBytes,
	}

	if v := os.Getenv("LEDGER_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse LEDGER_MAX_BODY_BYTES: %w", err)
		}
		cfg.MaxBodyBytes = n
	}

	if v := os.Getenv("LEDGER_IP_ALLOWLIST"); v != "" {
		for _, cidr := range strings.Split(v, ",") {
			cidr = strings.TrimSpace(cidr)
			if cidr != "" {
				cfg.IPAllowlist = append(cfg.IPAllowlist, cidr)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	return nil
}

// IsProduction reports whether the service runs with production
// settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
