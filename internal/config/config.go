// internal/config/config.go
//
// Typed process configuration read from the environment. main loads .env
// through godotenv before calling Load, so values may come from either.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string
	Store    StoreConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Words    WordsConfig
	Engine   EngineConfig
}

// StoreConfig picks the Repository backend.
type StoreConfig struct {
	Driver      string // memory | sqlite | postgres
	SQLitePath  string
	PostgresDSN string
}

// RedisConfig enables the cross-process player lock when Addr is set.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool
}

type AuthConfig struct {
	JWTSecret    string
	CookieName   string
	ClientOrigin string
}

type WordsConfig struct {
	AnswersFile string
	AllowedFile string
}

type EngineConfig struct {
	LockWait    time.Duration
	LockTTL     time.Duration
	StartPolicy string // resume | reject
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	PolicyResume = "resume"
	PolicyReject = "reject"
)

// Load reads the environment. Unset keys fall back to development defaults;
// malformed values are an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "5175"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			SQLitePath:  getEnv("SQLITE_PATH", "./data/wordle.db"),
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Username: os.Getenv("REDIS_USERNAME"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
			CookieName:   getEnv("COOKIE_NAME", "wordle_token"),
			ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		},
		Words: WordsConfig{
			AnswersFile: os.Getenv("WORDS_ANSWERS_FILE"),
			AllowedFile: os.Getenv("WORDS_ALLOWED_FILE"),
		},
		Engine: EngineConfig{
			StartPolicy: strings.ToLower(getEnv("START_POLICY", PolicyResume)),
		},
	}

	var err error
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Redis.TLS, err = boolEnv("REDIS_TLS", false); err != nil {
		return nil, err
	}
	if cfg.Engine.LockWait, err = durationEnv("LOCK_WAIT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Engine.LockTTL, err = durationEnv("LOCK_TTL", 10*time.Second); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("config: STORE_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
	switch cfg.Engine.StartPolicy {
	case PolicyResume, PolicyReject:
	default:
		return nil, fmt.Errorf("config: unknown START_POLICY %q", cfg.Engine.StartPolicy)
	}
	return cfg, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", k, err)
	}
	return b, nil
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", k)
	}
	return d, nil
}
