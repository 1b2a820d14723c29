package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lessonlines/lessonlines/pkg/core/position"
)

type Config struct {
	Port            string
	DatabaseURL     string
	AppEnv          string
	JWTSecret       string
	LogLevel        string
	ReorderPolicy   position.Policy
	TimelineLocking bool
	CORSOrigins     []string
}

func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	policy, err := position.ParsePolicy(getEnv("REORDER_POLICY", "permissive"))
	if err != nil {
		return nil, fmt.Errorf("REORDER_POLICY: %w", err)
	}

	locking, err := strconv.ParseBool(getEnv("TIMELINE_LOCKING", "true"))
	if err != nil {
		return nil, fmt.Errorf("TIMELINE_LOCKING: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "file:lessonlines.db"),
		AppEnv:          getEnv("APP_ENV", "local"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ReorderPolicy:   policy,
		TimelineLocking: locking,
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv != "local" {
			return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV is %q", cfg.AppEnv)
		}
		cfg.JWTSecret = "local-dev-secret"
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
