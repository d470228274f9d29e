package content

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pubkeyHex  = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	eventIDHex = "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36"
)

func TestScanProfiles(t *testing.T) {
	npub, err := nip19.EncodePublicKey(pubkeyHex)
	require.NoError(t, err)
	nprofile, err := nip19.EncodeProfile(pubkeyHex, []string{"wss://relay.example.com"})
	require.NoError(t, err)

	m := Scan(fmt.Sprintf("cc nostr:%s and also nostr:%s", npub, nprofile))

	require.Len(t, m.Profiles, 1)
	assert.Equal(t, pubkeyHex, m.Profiles[0].PublicKey)
	assert.Equal(t, []string{pubkeyHex}, m.ProfileKeys())
}

func TestScanEvents(t *testing.T) {
	nevent, err := nip19.EncodeEvent(eventIDHex, []string{"wss://relay.example.com"}, "")
	require.NoError(t, err)

	m := Scan("see nostr:" + nevent)

	require.Len(t, m.Events, 1)
	assert.Equal(t, eventIDHex, m.Events[0].ID)
	assert.Equal(t, []string{"wss://relay.example.com"}, m.Relays())
}

func TestScanHashtags(t *testing.T) {
	m := Scan("fixes #Bug in the #parser, not in the#middle of a word")

	assert.Equal(t, []string{"bug", "parser"}, m.Hashtags)
}

func TestScanSkipsGarbage(t *testing.T) {
	m := Scan("nostr:npub1notbech32!!! plain text")

	assert.Empty(t, m.Profiles)
	assert.Empty(t, m.Events)
}

func TestTags(t *testing.T) {
	npub, err := nip19.EncodePublicKey(pubkeyHex)
	require.NoError(t, err)
	note, err := nip19.EncodeNote(eventIDHex)
	require.NoError(t, err)

	m := Scan(fmt.Sprintf("nostr:%s nostr:%s #golang", npub, note))
	tags := m.Tags()

	require.Len(t, tags, 3)
	assert.Equal(t, []string{"p", pubkeyHex}, []string(tags[0]))
	assert.Equal(t, []string{"q", eventIDHex}, []string(tags[1]))
	assert.Equal(t, []string{"t", "golang"}, []string(tags[2]))
}

func TestScanDedupes(t *testing.T) {
	npub, err := nip19.EncodePublicKey(pubkeyHex)
	require.NoError(t, err)

	text := strings.Repeat("nostr:"+npub+" ", 3) + "#dup #dup"
	m := Scan(text)

	assert.Len(t, m.Profiles, 1)
	assert.Len(t, m.Hashtags, 1)
}
