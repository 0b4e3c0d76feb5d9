package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.GraderTimeout)
	assert.Equal(t, 5*time.Minute, cfg.QuestionCacheTTL)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.AdminEnabled())
	assert.False(t, cfg.RemoteGraderEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("GRADER_TIMEOUT", "10s")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, 10*time.Second, cfg.GraderTimeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AdminEnabled())
}
