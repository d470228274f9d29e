package cmd

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitcli/nit/internal/config"
	"github.com/nitcli/nit/internal/model"
)

const testOwnerKey = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

func testNaddr(t *testing.T, identifier string, relays []string) string {
	t.Helper()
	naddr, err := nip19.EncodeEntity(testOwnerKey, model.KindRepoAnnouncement, identifier, relays)
	require.NoError(t, err)
	return naddr
}

func TestReadNostrAddressFile(t *testing.T) {
	t.Chdir(t.TempDir())

	naddr := testNaddr(t, "my-repo", []string{"wss://relay.example.com"})
	contents := nostrAddressHeader + naddr + "\n"
	require.NoError(t, os.WriteFile(nostrAddressFile, []byte(contents), 0o644))

	coords, err := readNostrAddressFile(context.Background())
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, "my-repo", coords[0].Identifier)
	assert.Equal(t, testOwnerKey, coords[0].PubKey)
}

func TestReadNostrAddressFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := readNostrAddressFile(context.Background())
	assert.ErrorIs(t, err, model.ErrEmptyCoordinates)
}

func TestReadNostrAddressFileOnlyComments(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(nostrAddressFile, []byte(nostrAddressHeader), 0o644))

	_, err := readNostrAddressFile(context.Background())
	assert.ErrorIs(t, err, model.ErrEmptyCoordinates)
}

func TestAppendNostrAddressCreatesWithHeader(t *testing.T) {
	t.Chdir(t.TempDir())

	naddr := testNaddr(t, "my-repo", nil)
	require.NoError(t, appendNostrAddress(naddr))

	data, err := os.ReadFile(nostrAddressFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# "))
	assert.Contains(t, string(data), naddr)

	// Appending the same address twice keeps a single line.
	require.NoError(t, appendNostrAddress(naddr))
	data, err = os.ReadFile(nostrAddressFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), naddr))

	other := testNaddr(t, "other-repo", nil)
	require.NoError(t, appendNostrAddress(other))
	data, err = os.ReadFile(nostrAddressFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), other)
	assert.Equal(t, 1, strings.Count(string(data), nostrAddressHeader))
}

func TestResolveCoordinatesExpandsSets(t *testing.T) {
	naddr := testNaddr(t, "my-repo", nil)
	rt := &runtime{cfg: &config.Config{
		Sets: []config.Set{{
			Name:      "work",
			Addresses: []string{naddr},
			Relays:    []string{"wss://work.example.com"},
		}},
	}}

	coords, err := rt.resolveCoordinates(context.Background(), []string{"work"})
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, "my-repo", coords[0].Identifier)
	assert.Contains(t, coords[0].Relays, "wss://work.example.com")
}

func TestResolveCoordinatesUnknownSet(t *testing.T) {
	rt := &runtime{cfg: &config.Config{}}
	_, err := rt.resolveCoordinates(context.Background(), []string{"nope"})
	var notFound *config.SetNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolveRelays(t *testing.T) {
	cfg := &config.Config{
		Sets: []config.Set{{Name: "work", Relays: []string{"wss://work.example.com"}}},
	}

	relays, err := resolveRelays(cfg, []string{"wss://a.example.com", "work"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://a.example.com", "wss://work.example.com"}, relays)

	_, err = resolveRelays(cfg, []string{"unknown-set"})
	var notFound *config.SetNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDedupStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupStrings([]string{"a", "b", "a", "c", "b"}))
}
