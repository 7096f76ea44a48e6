package config

import (
	"log/slog"
	"testing"
	"time"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"DATABASE_URL":   "postgres://localhost/walkers",
		"JWT_SECRET_KEY": "secret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != StoreDriverPostgres || !cfg.RunMigrations {
		t.Errorf("unexpected store defaults: %q, %v", cfg.StoreDriver, cfg.RunMigrations)
	}
	if cfg.ServerPort != 8080 || cfg.LogLevel != slog.LevelInfo || cfg.JWTTTL != time.Hour {
		t.Errorf("unexpected defaults: port %d, level %v, ttl %v", cfg.ServerPort, cfg.LogLevel, cfg.JWTTTL)
	}
	if cfg.AuditBufferSize != 256 || len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("unexpected defaults: buffer %d, origins %v", cfg.AuditBufferSize, cfg.CORSAllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"STORE_DRIVER":         "memory",
		"JWT_SECRET_KEY":       "secret",
		"RUN_MIGRATIONS":       "false",
		"SERVER_PORT":          "9090",
		"LOG_LEVEL":            "debug",
		"JWT_TTL":              "30m",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com,",
		"ORGANIZER_EMAIL":      "admin@example.com",
		"ORGANIZER_PASSWORD":   "pw",
		"AUDIT_BUFFER_SIZE":    "10",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != StoreDriverMemory || cfg.RunMigrations || cfg.ServerPort != 9090 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.JWTTTL != 30*time.Minute || cfg.AuditBufferSize != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestFromEnvErrors(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": "secret"}
	}

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing database url", "DATABASE_URL", ""},
		{"missing secret", "JWT_SECRET_KEY", ""},
		{"unknown driver", "STORE_DRIVER", "mysql"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"port not a number", "SERVER_PORT", "http"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"bad ttl", "JWT_TTL", "-1h"},
		{"bad migrations flag", "RUN_MIGRATIONS", "maybe"},
		{"organizer without password", "ORGANIZER_EMAIL", "admin@example.com"},
		{"bad buffer", "AUDIT_BUFFER_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := base()
			env[tt.key] = tt.val
			if _, err := FromEnv(envFrom(env)); err == nil {
				t.Errorf("expected an error for %s=%q", tt.key, tt.val)
			}
		})
	}
}
