package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/internal/backend"
	"sol2rs/internal/errors"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[compile]
backend = "Soroban"
contract = "Token"
out-dir = "generated"
format = true
jobs = 2

[log]
verbosity = 2
`))
	require.NoError(t, err)
	assert.Equal(t, backend.Soroban, cfg.Backend)
	assert.Equal(t, "Token", cfg.Contract)
	assert.Equal(t, "generated", cfg.OutDir)
	assert.True(t, cfg.Format)
	assert.Equal(t, "rustfmt", cfg.Rustfmt)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, 2, cfg.Verbosity)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, backend.Ink, cfg.Backend)
	assert.Equal(t, ".", cfg.OutDir)
	assert.Equal(t, runtime.NumCPU(), cfg.Jobs)
	assert.False(t, cfg.Format)
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse([]byte("[compile]\nbackend = \"evm\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[compile]\njobs = -1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[compile\n"))
	assert.Error(t, err)
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "contracts", "tokens")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Equal(t, "", Find(nested))

	path := filepath.Join(root, FileName)
	require.NoError(t, os.WriteFile(path, []byte("[compile]\nbackend = \"ink-v6\"\nout-dir = \"out\"\n"), 0o644))
	assert.Equal(t, path, Find(nested))

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, backend.InkV6, cfg.Backend)
	assert.Equal(t, filepath.Join(root, "out"), cfg.OutDir)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.True(t, errors.IsKind(err, errors.IOError))
}
