package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/RenameVault/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RENAMEVAULT_WORKERS", "")
	t.Setenv("RENAMEVAULT_OCR_LANGUAGE", "")
	t.Setenv("RENAMEVAULT_LOG_LEVEL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.Equal(t, "pdf_processing.db", cfg.StatusDBPath)
	assert.True(t, cfg.ExportEnabled)
	assert.Equal(t, 500*time.Millisecond, cfg.ProgressInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RENAMEVAULT_WORKERS", "6")
	t.Setenv("RENAMEVAULT_OCR_LANGUAGE", "chi_tra")
	t.Setenv("RENAMEVAULT_EXPORT_ENABLED", "false")
	t.Setenv("RENAMEVAULT_PROGRESS_INTERVAL", "2s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "chi_tra", cfg.OCRLanguage)
	assert.False(t, cfg.ExportEnabled)
	assert.Equal(t, 2*time.Second, cfg.ProgressInterval)
}
