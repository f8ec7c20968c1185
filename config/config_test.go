package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bookkeeppr/config"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("BOOKKEEPPR_DATA_DIR", dataDir)
	t.Setenv("BOOKKEEPPR_RETENTION_DAYS", "")
	t.Setenv("BOOKKEEPPR_PORT", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "bookkeeppr.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dataDir, "recovery"), cfg.RecoveryDir)
	assert.Equal(t, filepath.Join(dataDir, "bookkeeppr.log"), cfg.LogPath)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "1304", cfg.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("BOOKKEEPPR_DATA_DIR", dataDir)
	t.Setenv("BOOKKEEPPR_RETENTION_DAYS", "7")
	t.Setenv("BOOKKEEPPR_PORT", "8080")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_RejectsBadRetention(t *testing.T) {
	t.Setenv("BOOKKEEPPR_DATA_DIR", t.TempDir())

	for _, bad := range []string{"abc", "0", "-5"} {
		t.Setenv("BOOKKEEPPR_RETENTION_DAYS", bad)
		_, err := config.Load("")
		assert.Error(t, err, "retention %q should be rejected", bad)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dataDir := t.TempDir()
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile,
		[]byte("BOOKKEEPPR_DATA_DIR="+dataDir+"\nBOOKKEEPPR_PORT=9999\n"), 0o644))
	// godotenv never overrides variables already present in the
	// environment, so these must be genuinely unset, not empty.
	for _, key := range []string{"BOOKKEEPPR_DATA_DIR", "BOOKKEEPPR_RETENTION_DAYS", "BOOKKEEPPR_PORT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "9999", cfg.Port)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	t.Setenv("BOOKKEEPPR_DATA_DIR", t.TempDir())

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		DataDir:     filepath.Join(root, "data"),
		RecoveryDir: filepath.Join(root, "data", "recovery"),
	}
	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, cfg.RecoveryDir)
}
