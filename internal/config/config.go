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

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	StorageMemory    = "memory"
	StorageSQL       = "sql"
	StorageFirestore = "firestore"
)

type Config struct {
	Mode Mode

	Port    string
	LogMode string

	StorageBackend string // "memory", "sql" or "firestore"
	SQLDriver      string // "sqlite" or "postgres"
	SQLDSN         string
	GCPProjectID   string

	FollowUpDelay  time.Duration
	SessionIdleTTL time.Duration

	// Zero disables the background sweeper.
	AchievementSweepInterval time.Duration
	AchievementSweepWindow   time.Duration

	TracingEnabled bool
	AllowOrigins   []string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads an optional .env file, then all FARUM_ env vars, and builds the
// config. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	mode := ModeLocal
	if getEnv("FARUM_MODE", "local") == "gcp" {
		mode = ModeGCP
	}

	logDefault := "development"
	if mode == ModeGCP {
		logDefault = "production"
	}

	cfg := &Config{
		Mode: mode,

		Port:    getEnv("FARUM_PORT", getEnv("PORT", "8080")),
		LogMode: getEnv("FARUM_LOG_MODE", logDefault),

		StorageBackend: getEnv("FARUM_STORAGE_BACKEND", StorageMemory),
		SQLDriver:      getEnv("FARUM_SQL_DRIVER", "sqlite"),
		SQLDSN:         getEnv("FARUM_SQL_DSN", "farum.db"),
		GCPProjectID:   getEnv("FARUM_GCP_PROJECT", ""),

		TracingEnabled: getBoolEnv("FARUM_TRACING_ENABLED", false),
		AllowOrigins:   getListEnv("FARUM_CORS_ORIGINS"),
	}

	var err error
	if cfg.FollowUpDelay, err = getDurationEnv("FARUM_FOLLOW_UP_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getDurationEnv("FARUM_SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AchievementSweepInterval, err = getDurationEnv("FARUM_ACHIEVEMENT_SWEEP_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.AchievementSweepWindow, err = getDurationEnv("FARUM_ACHIEVEMENT_SWEEP_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageSQL:
		if c.SQLDriver != "sqlite" && c.SQLDriver != "postgres" {
			return fmt.Errorf("FARUM_SQL_DRIVER must be sqlite or postgres, got %q", c.SQLDriver)
		}
		if c.SQLDSN == "" {
			return errors.New("FARUM_SQL_DSN is required for the sql storage backend")
		}
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return errors.New("FARUM_GCP_PROJECT is required for the firestore storage backend")
		}
	default:
		return fmt.Errorf("unknown FARUM_STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return errors.New("FARUM_GCP_PROJECT must be set in gcp mode")
	}
	if c.FollowUpDelay < 0 {
		return errors.New("FARUM_FOLLOW_UP_DELAY must not be negative")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("FARUM_SESSION_IDLE_TTL must be positive")
	}
	if c.AchievementSweepInterval < 0 {
		return errors.New("FARUM_ACHIEVEMENT_SWEEP_INTERVAL must not be negative")
	}
	return nil
}
