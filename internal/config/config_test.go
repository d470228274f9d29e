package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Sets)
	assert.Zero(t, cfg.Pow)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
pow = 16
fallback_relays = ["wss://relay.example.com"]
keyring_secret_key = true

[[sets]]
name = "kernel"
relays = ["wss://relay.kernel.example"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Pow)
	assert.Equal(t, []string{"wss://relay.example.com"}, cfg.FallbackRelays)
	assert.True(t, cfg.KeyringSecretKey)
	require.Len(t, cfg.Sets, 1)
	assert.Equal(t, "kernel", cfg.Sets[0].Name)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pow = 4\n")
	t.Setenv("NIT_POW", "22")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 22, cfg.Pow)
}

func TestDuplicateSetNamesRejected(t *testing.T) {
	path := writeConfig(t, `
[[sets]]
name = "kernel"
relays = ["wss://a.example"]

[[sets]]
name = "kernel"
relays = ["wss://b.example"]
`)

	_, err := Load(path)
	var dup *DuplicateSetError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "kernel", dup.Name)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := &Config{
		Pow:            8,
		FallbackRelays: []string{"wss://relay.example.com"},
		Sets: []Set{
			{Name: "kernel", Relays: []string{"wss://relay.kernel.example"}},
		},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Pow, loaded.Pow)
	assert.Equal(t, cfg.FallbackRelays, loaded.FallbackRelays)
	require.Len(t, loaded.Sets, 1)
	assert.Equal(t, "kernel", loaded.Sets[0].Name)
	assert.Equal(t, []string{"wss://relay.kernel.example"}, loaded.Sets[0].Relays)
}

func TestFindSet(t *testing.T) {
	cfg := &Config{Sets: []Set{{Name: "kernel", Relays: []string{"wss://a.example"}}}}

	set, err := cfg.FindSet("kernel")
	require.NoError(t, err)
	assert.Equal(t, "kernel", set.Name)

	_, err = cfg.FindSet("nope")
	var notFound *SetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Name)
}

func TestAddSet(t *testing.T) {
	cfg := &Config{}

	require.Error(t, cfg.AddSet(Set{Name: "empty"}))

	require.NoError(t, cfg.AddSet(Set{Name: "kernel", Relays: []string{"wss://a.example"}}))
	err := cfg.AddSet(Set{Name: "kernel", Relays: []string{"wss://b.example"}})
	var dup *DuplicateSetError
	assert.ErrorAs(t, err, &dup)
}

func TestRemoveSet(t *testing.T) {
	cfg := &Config{Sets: []Set{{Name: "kernel", Relays: []string{"wss://a.example"}}}}

	require.NoError(t, cfg.RemoveSet("kernel"))
	assert.Empty(t, cfg.Sets)

	var notFound *SetNotFoundError
	assert.ErrorAs(t, cfg.RemoveSet("kernel"), &notFound)
}
