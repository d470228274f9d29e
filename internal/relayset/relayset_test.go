package relayset

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"

	"github.com/nitcli/nit/internal/model"
)

func TestMergePreservesFirstSeenOrder(t *testing.T) {
	got := Merge(
		[]string{"wss://a.example.com", "wss://b.example.com"},
		[]string{"wss://b.example.com", "wss://c.example.com"},
		[]string{"wss://a.example.com"},
	)
	assert.Equal(t, []string{"wss://a.example.com", "wss://b.example.com", "wss://c.example.com"}, got)
}

func TestMergeDeterministic(t *testing.T) {
	in := [][]string{
		{"wss://one.example.com", "wss://two.example.com"},
		{"wss://three.example.com", "wss://one.example.com"},
	}
	first := Merge(in...)
	second := Merge(in...)
	assert.Equal(t, first, second)

	seen := map[string]int{}
	for _, url := range first {
		seen[url]++
	}
	for url, n := range seen {
		assert.Equal(t, 1, n, "duplicate url %s", url)
	}
}

func TestMergeNormalizes(t *testing.T) {
	got := Merge([]string{"wss://relay.example.com/", "wss://relay.example.com"})
	assert.Len(t, got, 1)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge(nil, []string{}))
}

func relayListEvent(tags nostr.Tags) *nostr.Event {
	return &nostr.Event{Kind: model.KindRelayList, Tags: tags}
}

func TestExtractRole(t *testing.T) {
	evt := relayListEvent(nostr.Tags{
		{"r", "wss://both.example.com"},
		{"r", "wss://reader.example.com", "read"},
		{"r", "wss://writer.example.com", "write"},
	})

	assert.Equal(t,
		[]string{"wss://both.example.com", "wss://reader.example.com"},
		ExtractRole(evt, RoleRead))
	assert.Equal(t,
		[]string{"wss://both.example.com", "wss://writer.example.com"},
		ExtractRole(evt, RoleWrite))
}

func TestExtractRoleAbsentDocument(t *testing.T) {
	assert.Empty(t, ReadRelays(nil))
	assert.Empty(t, WriteRelays(nil))
}

func TestExtractRoleWrongKind(t *testing.T) {
	evt := &nostr.Event{Kind: model.KindIssue, Tags: nostr.Tags{{"r", "wss://x.example.com"}}}
	assert.Empty(t, ReadRelays(evt))
}
