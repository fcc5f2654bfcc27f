package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, DefaultFiles, cfg.Optimize.Files)
	require.Equal(t, 1920, cfg.Optimize.MaxWidth)
	require.Equal(t, 85, cfg.Optimize.Quality)
	require.Equal(t, 4, cfg.Verify.MinFeatures)
	require.Len(t, cfg.Verify.Features, 6)
	require.Zero(t, cfg.Verify.Timeout)
	require.False(t, cfg.S3.Enabled)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("OPTIMIZE_FILES", " /a.jpg, ,/b.jpg ")
	t.Setenv("OPTIMIZE_QUALITY", "70")
	t.Setenv("VERIFY_URL", "http://localhost:5173")
	t.Setenv("VERIFY_TIMEOUT", "15s")
	t.Setenv("S3_BACKUP_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, []string{"/a.jpg", "/b.jpg"}, cfg.Optimize.Files)
	require.Equal(t, 70, cfg.Optimize.Quality)
	require.Equal(t, "http://localhost:5173", cfg.Verify.URL)
	require.Equal(t, 15*time.Second, cfg.Verify.Timeout)
	require.True(t, cfg.S3.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("OPTIMIZE_QUALITY", "101")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("OPTIMIZE_QUALITY", "85")
	t.Setenv("VERIFY_MIN_FEATURES", "7")
	_, err = Load()
	require.Error(t, err)
}
