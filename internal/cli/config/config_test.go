package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagen/internal/compiler/binary"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, binary.DefaultLayout(), cfg.Layout())
	assert.Equal(t, filepath.Join("build/metadata", "metadata.bin"), cfg.BlobPath())
	assert.Equal(t, filepath.Join("build/metadata", "typings"), cfg.TypeScriptDir())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".metagen/cache", cfg.Cache.Dir)
	assert.Empty(t, cfg.Index.Path)
	assert.False(t, cfg.Log.JSON)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
input: sdk/ios.json.gz
output:
  dir: dist
  blob: ios.bin
binary:
  pointer_size: 8
  array_count_size: 2
identifiers:
  collisions: collisions.toml
cache:
  enabled: false
index:
  path: index.db
log:
  verbose: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metagen.yml"), []byte(content), 0o644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "sdk/ios.json.gz", cfg.Input)
	assert.Equal(t, filepath.Join("dist", "ios.bin"), cfg.BlobPath())
	assert.Equal(t, binary.Layout{PointerSize: 8, ArrayCountSize: 2}, cfg.Layout())
	assert.Equal(t, "collisions.toml", cfg.Identifiers.Collisions)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "index.db", cfg.Index.Path)
	assert.True(t, cfg.Log.Verbose)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("METAGEN_BINARY_POINTER_SIZE", "2")
	t.Setenv("METAGEN_OUTPUT_DIR", "out")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Binary.PointerSize)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"pointer too wide", "binary:\n  pointer_size: 9\n", "pointer size"},
		{"zero array count", "binary:\n  array_count_size: 0\n", "array count size"},
		{"empty blob", "output:\n  blob: \"\"\n", "output.blob"},
		{"cache without dir", "cache:\n  dir: \"\"\n", "cache.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "metagen.yml"), []byte(tt.content), 0o644))

			_, err := LoadFrom(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metagen.yml"), []byte("binary: [unclosed"), 0o644))

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestFindConfigDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "metagen.yaml"), []byte("input: x\n"), 0o644))

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(oldWd)

	dir, err := FindConfigDir()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
