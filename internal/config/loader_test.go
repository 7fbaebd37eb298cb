package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Ingestion.BatchSize)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "municipal", cfg.Database.DBName)
	assert.Equal(t, 15*time.Minute, cfg.Ingestion.StageTTL)
	assert.Empty(t, cfg.File)
}

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
database:
  host: db.internal
  name: city
ingestion:
  batch_size: 250
  strict_replace: true
  stage_ttl: 2m
storage:
  backend: gcs
  gcs_bucket: uploads
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("MUNI_DATABASE_PORT", "6543")
	t.Setenv("MUNI_LOGGING_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "city", cfg.Database.DBName)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 250, cfg.Ingestion.BatchSize)
	assert.True(t, cfg.Ingestion.StrictReplace)
	assert.Equal(t, 2*time.Minute, cfg.Ingestion.StageTTL)
	assert.Equal(t, "uploads", cfg.Storage.GCSBucket)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MUNI_INGESTION_BATCH_SIZE", "0")
	t.Setenv("MUNI_STORAGE_BACKEND", "ftp")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BatchSize")
	assert.Contains(t, err.Error(), "Backend")
}

func TestValidateRequiresBucketForGCS(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "gcs"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCSBucket")

	cfg.Storage.GCSBucket = "bucket"
	assert.NoError(t, Validate(cfg))
}

func TestValidateGCSEndpointMustBeURL(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "gcs"
	cfg.Storage.GCSBucket = "bucket"
	cfg.Storage.GCSEndpoint = "not a url"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCSEndpoint")

	cfg.Storage.GCSEndpoint = "http://localhost:4443/storage/v1/"
	assert.NoError(t, Validate(cfg))
}
