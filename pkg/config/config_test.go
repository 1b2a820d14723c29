package config

import (
	"testing"

	"github.com/lessonlines/lessonlines/pkg/core/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "LOG_LEVEL", "REORDER_POLICY", "TIMELINE_LOCKING", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}
	t.Setenv("APP_ENV", "local")
	t.Setenv("REORDER_POLICY", "permissive")
	t.Setenv("TIMELINE_LOCKING", "true")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, http://localhost:3000,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, position.Permissive, cfg.ReorderPolicy)
	assert.True(t, cfg.TimelineLocking)
	assert.Equal(t, "local-dev-secret", cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REORDER_POLICY", "strict")
	t.Setenv("TIMELINE_LOCKING", "false")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, position.Strict, cfg.ReorderPolicy)
	assert.False(t, cfg.TimelineLocking)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("TIMELINE_LOCKING", "true")
	t.Setenv("REORDER_POLICY", "sometimes")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REORDER_POLICY", "strict")
	t.Setenv("TIMELINE_LOCKING", "maybe")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("TIMELINE_LOCKING", "true")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.Error(t, err)
}
