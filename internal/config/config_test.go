package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/homeroom_test"
  max_open_conns: 10

openai:
  api_key: "test-api-key"
  model: "gpt-4o-mini"
  enabled: true

bedrock:
  region: "us-west-2"
  enabled: true

analysis:
  default_provider: "bedrock"
  batch_delay_seconds: 5
  batch_limit: 20

archive:
  enabled: true
  s3_bucket: "homeroom-archive"
  s3_region: "us-east-1"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test database config
	assert.Equal(t, "postgres://localhost/homeroom_test", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)

	// Test provider configs
	assert.Equal(t, "test-api-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "us-west-2", cfg.Bedrock.Region)
	assert.True(t, cfg.Bedrock.Enabled)

	// Test analysis config
	assert.Equal(t, "bedrock", cfg.Analysis.DefaultProvider)
	assert.Equal(t, 5, cfg.Analysis.BatchDelaySeconds)
	assert.Equal(t, 20, cfg.Analysis.BatchLimit)

	// Test archive config
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "homeroom-archive", cfg.Archive.S3Bucket)
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
openai:
  api_key: "test-key"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "us-east-1", cfg.Bedrock.Region)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.Bedrock.ModelID)
	assert.Equal(t, 2, cfg.Analysis.BatchDelaySeconds)
	assert.Equal(t, 50, cfg.Analysis.BatchLimit)
	assert.Equal(t, 7, cfg.Analysis.CleanupGraceDays)
	assert.Equal(t, 30, cfg.Jobs.TimeoutMinutes)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
openai:
  api_key: "file-key"
database:
  url: "postgres://file-host/homeroom"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("OPENAI_API_KEY", "env-key")
	os.Setenv("DATABASE_URL", "postgres://env-host/homeroom")
	os.Setenv("ANALYSIS_PROVIDER", "bedrock")
	defer func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("ANALYSIS_PROVIDER")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "env-key", cfg.OpenAI.APIKey)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "postgres://env-host/homeroom", cfg.Database.URL)
	assert.Equal(t, "bedrock", cfg.Analysis.DefaultProvider)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	analysis := AnalysisConfig{BatchDelaySeconds: 5, LockTTLSeconds: 120}
	assert.Equal(t, 5*time.Second, analysis.BatchDelay())
	assert.Equal(t, 2*time.Minute, analysis.LockTTL())

	jobsCfg := JobsConfig{TimeoutMinutes: 15}
	assert.Equal(t, 15*time.Minute, jobsCfg.Timeout())
}
