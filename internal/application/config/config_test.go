package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	require.False(t, cfg.Debug)
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "9090", cfg.MetricPort)
	require.Equal(t, "http://localhost:3000", cfg.Domain)
	require.Empty(t, cfg.JWTSecret)
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("PORT", "8080")
	t.Setenv("METRIC_PORT", "9100")
	t.Setenv("DOMAIN", "https://rooms.example.com")
	t.Setenv("JWT_SECRET", "s3cr3t")

	cfg, err := New()
	require.NoError(t, err)

	require.True(t, cfg.Debug)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "9100", cfg.MetricPort)
	require.Equal(t, "https://rooms.example.com", cfg.Domain)
	require.Equal(t, "s3cr3t", cfg.JWTSecret)
}
