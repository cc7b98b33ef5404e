package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FARUM_MODE", "")
	t.Setenv("FARUM_STORAGE_BACKEND", "")
	t.Setenv("FARUM_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("FARUM_FOLLOW_UP_DELAY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeLocal || cfg.StorageBackend != StorageMemory || cfg.Port != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.FollowUpDelay != 2*time.Second || cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("unexpected timings %+v", cfg)
	}
	if cfg.AchievementSweepInterval != 0 {
		t.Fatalf("sweeper should be off by default, got %v", cfg.AchievementSweepInterval)
	}
}

func TestLoadReadsEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FARUM_STORAGE_BACKEND", "sql")
	t.Setenv("FARUM_SQL_DRIVER", "postgres")
	t.Setenv("FARUM_SQL_DSN", "host=localhost user=farum")
	t.Setenv("FARUM_FOLLOW_UP_DELAY", "500ms")
	t.Setenv("FARUM_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("FARUM_TRACING_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SQLDriver != "postgres" || cfg.FollowUpDelay != 500*time.Millisecond || !cfg.TracingEnabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowOrigins)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FARUM_FOLLOW_UP_DELAY", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparsable duration")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Mode:           ModeLocal,
			StorageBackend: StorageMemory,
			SessionIdleTTL: time.Minute,
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory ok", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.StorageBackend = "redis" }, true},
		{"firestore without project", func(c *Config) { c.StorageBackend = StorageFirestore }, true},
		{"firestore with project", func(c *Config) { c.StorageBackend = StorageFirestore; c.GCPProjectID = "p" }, false},
		{"sql bad driver", func(c *Config) { c.StorageBackend = StorageSQL; c.SQLDriver = "mysql"; c.SQLDSN = "x" }, true},
		{"sql sqlite", func(c *Config) { c.StorageBackend = StorageSQL; c.SQLDriver = "sqlite"; c.SQLDSN = "x" }, false},
		{"gcp without project", func(c *Config) { c.Mode = ModeGCP }, true},
		{"negative delay", func(c *Config) { c.FollowUpDelay = -time.Second }, true},
		{"zero ttl", func(c *Config) { c.SessionIdleTTL = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
