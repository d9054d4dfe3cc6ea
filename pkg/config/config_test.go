package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexec/pkg/dberror"
	"qexec/pkg/logging"
	"qexec/pkg/optimizer"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qexec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// ============================================================================
// Loading
// ============================================================================

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.PageSize)
	assert.Equal(t, 50, cfg.NumBuffers)
	assert.Equal(t, "./qexec-data", cfg.DataDir)
	assert.Equal(t, optimizer.Strategy2PO, cfg.Strategy())
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, `
page_size: 512
num_buffers: 5
optimizer:
  strategy: SA
  seed: 42
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.PageSize)
	assert.Equal(t, 5, cfg.NumBuffers)
	assert.Equal(t, "./qexec-data", cfg.DataDir)
	assert.Equal(t, optimizer.StrategySA, cfg.Strategy())
	assert.Equal(t, int64(42), cfg.Seed())
	assert.Equal(t, logging.Config{Level: "debug", Format: "json"}, cfg.LogConfig())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"page size too small", "page_size: 32\n"},
		{"too few buffers", "num_buffers: 2\n"},
		{"unknown strategy", "optimizer:\n  strategy: greedy\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
		{"not yaml", "page_size: [1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.True(t, dberror.HasCode(err, dberror.CodeInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, dberror.IsCategory(err, dberror.CategoryIO))
}

func TestSeed_FromClock(t *testing.T) {
	cfg := Default()
	assert.NotZero(t, cfg.Seed())
}

// ============================================================================
// Temp directories
// ============================================================================

func TestRunTempDir_PrivatePerRun(t *testing.T) {
	cfg := Default()
	cfg.TempDir = filepath.Join(t.TempDir(), "spill")

	first, cleanFirst, err := cfg.RunTempDir()
	require.NoError(t, err)
	second, cleanSecond, err := cfg.RunTempDir()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, cfg.TempDir, filepath.Dir(first))
	assert.Equal(t, cfg.TempDir, filepath.Dir(second))

	// Same file name in both runs must not collide.
	require.NoError(t, os.WriteFile(filepath.Join(first, "BNLtemp-1"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(second, "BNLtemp-1"), []byte("b"), 0o600))

	require.NoError(t, cleanFirst())
	assert.NoDirExists(t, first)

	data, err := os.ReadFile(filepath.Join(second, "BNLtemp-1"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	require.NoError(t, cleanSecond())
	assert.NoDirExists(t, second)
}
