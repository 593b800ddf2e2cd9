package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	assert.Equal(t, "netterd", c.AppName)
	assert.Equal(t, "localhost:8080", c.Address)
	assert.Equal(t, 10*time.Second, c.ShutdownGracePeriod)
}

func TestLoadOverlayMissingFileReturnsBase(t *testing.T) {
	base := Default()
	merged, err := LoadOverlay(base, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, base, merged)
}

func TestLoadOverlayDecodesDurationsAndScalars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netter.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"address": "0.0.0.0:9090",
		"read_timeout": "5s",
		"max_header_bytes": 2097152
	}`), 0o644))

	merged, err := LoadOverlay(Default(), path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", merged.Address)
	assert.Equal(t, 5*time.Second, merged.ReadTimeout)
	assert.Equal(t, 2097152, merged.MaxHeaderBytes)
}

func TestApplyDSLConfigOverridesAddress(t *testing.T) {
	c := Default()
	c.ApplyDSLConfig("0.0.0.0", "8888")
	assert.Equal(t, "0.0.0.0:8888", c.Address)
}

func TestApplyDSLConfigIgnoredWhenEmpty(t *testing.T) {
	c := Default()
	before := c.Address
	c.ApplyDSLConfig("", "")
	assert.Equal(t, before, c.Address)
}
