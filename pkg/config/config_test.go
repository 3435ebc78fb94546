package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Port)
	assert.NotEmpty(t, cfg.Neo4jURI)
	assert.Greater(t, cfg.UsernameCheckInterval, time.Duration(0))
	assert.Greater(t, cfg.StatusRefreshInterval, time.Duration(0))
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Neo4jURI:      "bolt://localhost:7687",
		Neo4jUser:     "neo4j",
		Neo4jPassword: "password",
	}
	assert.NoError(t, cfg.Validate())

	cfg.Neo4jPassword = ""
	assert.Error(t, cfg.Validate())
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_INTERVAL", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_INTERVAL", time.Minute))

	t.Setenv("TEST_INTERVAL", "not-a-duration")
	assert.Equal(t, time.Minute, getEnvDuration("TEST_INTERVAL", time.Minute))

	assert.Equal(t, time.Minute, getEnvDuration("TEST_INTERVAL_UNSET", time.Minute))
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
}
