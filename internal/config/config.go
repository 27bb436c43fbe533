// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the runtime configuration of the HTTP service.  Each field
// corresponds to an environment variable; the engine specific settings
// live in ReservationConfig.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign access tokens
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	Reservation ReservationConfig
	Cache       CacheConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	Broker      BrokerConfig
}

// Load reads every configuration section.  Missing required variables are
// reported together in one error.
func Load() (Config, error) {
	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}
	cfg := Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %v", missing)
	}

	var err error
	if cfg.AccessTTLMin, err = mustInt("ACCESS_TOKEN_TTL_MIN", 15); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = mustInt("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}

	cfg.Reservation = LoadReservationConfig()
	cfg.Cache = LoadCacheConfig()
	cfg.RateLimit = LoadRateLimitConfig()
	cfg.Log = LoadLogConfig()
	cfg.Broker = LoadBrokerConfig()
	return cfg, nil
}

// DSN renders the MySQL data source name for the configured database.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// mustInt returns def when key is unset and an error when it is set to
// something that is not an integer.
func mustInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}
