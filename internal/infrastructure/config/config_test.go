package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.85, cfg.Compliance.SanctionsMatchThreshold)
	assert.Equal(t, 0.95, cfg.Compliance.SanctionsBlockThreshold)
	assert.Equal(t, 75, cfg.Compliance.ReviewRiskScore)
	assert.Equal(t, 15*time.Minute, cfg.Compliance.RuleCacheTTL)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `environment: production
compliance:
  review_risk_score: 60
sanctions:
  dataset_path: /var/lib/compliance/dataset.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Compliance.ReviewRiskScore)
	assert.Equal(t, "/var/lib/compliance/dataset.yaml", cfg.Sanctions.DatasetPath)
	assert.True(t, cfg.IsProduction())
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.85, cfg.Compliance.SanctionsMatchThreshold)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	t.Setenv("COMPLIANCE_LOG_LEVEL", "debug")
	t.Setenv("COMPLIANCE_SERVER__PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_RejectsInvalidThresholds(t *testing.T) {
	t.Setenv("COMPLIANCE_COMPLIANCE__REVIEW_RISK_SCORE", "0")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsBlockBelowMatchThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `compliance:
  sanctions_match_threshold: 0.9
  sanctions_block_threshold: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
