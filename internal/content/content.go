// Package content scans free-form event text for nostr: mentions and
// hashtags so they can be surfaced as tags and relay hints.
package content

import (
	"regexp"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/rs/zerolog/log"
)

var (
	mentionRe = regexp.MustCompile(`nostr:((?:npub|nprofile|note|nevent)1[02-9ac-hj-np-z]+)`)
	hashtagRe = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_-]+)`)
)

// Mentions holds everything worth tagging that was found in a piece of text.
type Mentions struct {
	Profiles []nostr.ProfilePointer
	Events   []nostr.EventPointer
	Hashtags []string
}

// Scan extracts nostr: entity mentions and #hashtags from text. Entities
// that fail to decode are skipped, not treated as errors.
func Scan(text string) Mentions {
	var m Mentions
	seenProfiles := map[string]bool{}
	seenEvents := map[string]bool{}
	seenTags := map[string]bool{}

	for _, match := range mentionRe.FindAllStringSubmatch(text, -1) {
		prefix, data, err := nip19.Decode(match[1])
		if err != nil {
			log.Debug().Str("entity", match[1]).Err(err).Msg("skipping undecodable mention")
			continue
		}
		switch prefix {
		case "npub":
			pk := data.(string)
			if !seenProfiles[pk] {
				seenProfiles[pk] = true
				m.Profiles = append(m.Profiles, nostr.ProfilePointer{PublicKey: pk})
			}
		case "nprofile":
			pp := data.(nostr.ProfilePointer)
			if !seenProfiles[pp.PublicKey] {
				seenProfiles[pp.PublicKey] = true
				m.Profiles = append(m.Profiles, pp)
			}
		case "note":
			id := data.(string)
			if !seenEvents[id] {
				seenEvents[id] = true
				m.Events = append(m.Events, nostr.EventPointer{ID: id})
			}
		case "nevent":
			ep := data.(nostr.EventPointer)
			if !seenEvents[ep.ID] {
				seenEvents[ep.ID] = true
				m.Events = append(m.Events, ep)
			}
		}
	}

	for _, match := range hashtagRe.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(match[1])
		if !seenTags[tag] {
			seenTags[tag] = true
			m.Hashtags = append(m.Hashtags, tag)
		}
	}
	return m
}

// Tags renders the mentions as event tags: "p" for profiles, "q" for
// quoted events, "t" for hashtags. Relay hints ride along when known.
func (m Mentions) Tags() nostr.Tags {
	var tags nostr.Tags
	for _, p := range m.Profiles {
		tag := nostr.Tag{"p", p.PublicKey}
		if len(p.Relays) > 0 {
			tag = append(tag, p.Relays[0])
		}
		tags = append(tags, tag)
	}
	for _, e := range m.Events {
		tag := nostr.Tag{"q", e.ID}
		if len(e.Relays) > 0 {
			tag = append(tag, e.Relays[0])
		}
		tags = append(tags, tag)
	}
	for _, t := range m.Hashtags {
		tags = append(tags, nostr.Tag{"t", t})
	}
	return tags
}

// Relays collects every relay hint embedded in the mentions, in order of
// appearance. Callers merge these at the lowest precedence tier.
func (m Mentions) Relays() []string {
	var relays []string
	for _, p := range m.Profiles {
		relays = append(relays, p.Relays...)
	}
	for _, e := range m.Events {
		relays = append(relays, e.Relays...)
	}
	return relays
}

// ProfileKeys returns the mentioned public keys, for notification p-tags.
func (m Mentions) ProfileKeys() []string {
	keys := make([]string, 0, len(m.Profiles))
	for _, p := range m.Profiles {
		keys = append(keys, p.PublicKey)
	}
	return keys
}
