package grove

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultFixedStep, cfg.FixedStep)
	assert.Equal(t, DefaultMaxFixedSteps, cfg.MaxFixedSteps)
	assert.Equal(t, DefaultAddressCacheSize, cfg.AddressCacheSize)
	assert.Equal(t, DefaultRootName, cfg.RootName)
	assert.False(t, cfg.Debug)
}

func TestParseConfigFormats(t *testing.T) {
	want := Config{
		FixedStep:        0.02,
		MaxFixedSteps:    3,
		AddressCacheSize: -1,
		RootName:         "stage",
		Debug:            true,
	}
	tests := []struct {
		format ConfigFormat
		data   string
	}{
		{FormatYAML, "fixed_step: 0.02\nmax_fixed_steps: 3\naddress_cache_size: -1\nroot_name: stage\ndebug: true\n"},
		{FormatTOML, "fixed_step = 0.02\nmax_fixed_steps = 3\naddress_cache_size = -1\nroot_name = \"stage\"\ndebug = true\n"},
		{FormatJSON, `{"fixed_step": 0.02, "max_fixed_steps": 3, "address_cache_size": -1, "root_name": "stage", "debug": true}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestParseConfigPartialAppliesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("root_name: world\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "world", cfg.RootName)
	assert.Equal(t, DefaultFixedStep, cfg.FixedStep)
	assert.Equal(t, DefaultMaxFixedSteps, cfg.MaxFixedSteps)
}

func TestParseConfigEmptyYAML(t *testing.T) {
	cfg, err := ParseConfig(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigUnknownKeys(t *testing.T) {
	tests := []struct {
		format ConfigFormat
		data   string
	}{
		{FormatYAML, "fixed_stepp: 1\n"},
		{FormatTOML, "fixed_stepp = 1\n"},
		{FormatJSON, `{"fixed_stepp": 1}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestParseConfigUnknownFormat(t *testing.T) {
	_, err := ParseConfig([]byte("{}"), ConfigFormat("ini"))
	assert.ErrorContains(t, err, "unknown format")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]ConfigFormat{
		"scene.yaml":     FormatYAML,
		"scene.YML":      FormatYAML,
		"dir/tree.toml":  FormatTOML,
		"/abs/tree.json": FormatJSON,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatFromPath("tree.ini")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grove.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_fixed_steps = 8\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxFixedSteps)
	assert.Equal(t, DefaultRootName, cfg.RootName)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, bad)
}
