package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(&cfg))
}

func TestValidateRejectsMissingAddress(t *testing.T) {
	cfg := Default()
	cfg.Network.PublicAddress = ""
	assert.Error(t, Validate(&cfg))
}

func TestValidateRejectsRCONWithoutPassword(t *testing.T) {
	cfg := Default()
	cfg.Server.SendStopViaRCON = true
	cfg.Server.RCONPassword = ""
	assert.Error(t, Validate(&cfg))
}

func TestValidateRejectsBadProxyProtocolMode(t *testing.T) {
	cfg := Default()
	cfg.Network.ProxyProtocolMode = "bogus"
	assert.Error(t, Validate(&cfg))
}

func TestGenerateThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazymc.toml")

	require.NoError(t, Generate(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Network.PublicAddress, cfg.Network.PublicAddress)
	assert.NoError(t, Validate(&cfg))
}

func TestGenerateRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazymc.toml")
	require.NoError(t, Generate(path, false))
	assert.Error(t, Generate(path, false))
	assert.NoError(t, Generate(path, true))
}
