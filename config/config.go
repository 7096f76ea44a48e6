package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL   string
	StoreDriver   string
	RunMigrations bool

	ServerPort int
	LogLevel   slog.Level

	JWTSecretKey string
	JWTTTL       time.Duration

	CORSAllowedOrigins []string

	OrganizerEmail    string
	OrganizerPassword string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	AuditBufferSize int
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Отсутствие .env не ошибка.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv without touching .env files.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getenv("DATABASE_URL"),
		StoreDriver:       strings.ToLower(strings.TrimSpace(getenv("STORE_DRIVER"))),
		JWTSecretKey:      getenv("JWT_SECRET_KEY"),
		OrganizerEmail:    strings.TrimSpace(getenv("ORGANIZER_EMAIL")),
		OrganizerPassword: getenv("ORGANIZER_PASSWORD"),
		R2AccountID:       getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
	}

	switch cfg.StoreDriver {
	case "":
		cfg.StoreDriver = StoreDriverPostgres
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	var err error
	if cfg.RunMigrations, err = boolOrDefault(getenv("RUN_MIGRATIONS"), true); err != nil {
		return nil, fmt.Errorf("invalid RUN_MIGRATIONS environment variable: %w", err)
	}

	portStr := getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if level := getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	} else {
		cfg.LogLevel = slog.LevelInfo
	}

	cfg.JWTTTL = time.Hour
	if ttl := getenv("JWT_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("JWT_TTL must be a positive duration, got %q", ttl)
		}
		cfg.JWTTTL = d
	}

	for _, origin := range strings.Split(getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if (cfg.OrganizerEmail == "") != (cfg.OrganizerPassword == "") {
		return nil, fmt.Errorf("ORGANIZER_EMAIL and ORGANIZER_PASSWORD must be set together")
	}

	cfg.AuditBufferSize = 256
	if size := getenv("AUDIT_BUFFER_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("AUDIT_BUFFER_SIZE must be a positive integer, got %q", size)
		}
		cfg.AuditBufferSize = n
	}

	return cfg, nil
}

func boolOrDefault(value string, def bool) (bool, error) {
	if value == "" {
		return def, nil
	}
	return strconv.ParseBool(value)
}
