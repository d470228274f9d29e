// Package relayset aggregates relay URLs from heterogeneous discovery
// sources. Everything here is pure: inputs were validated at the parse
// boundary, so nothing in this package can fail.
package relayset

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/model"
)

// Role selects a direction from a NIP-65 relay list.
type Role int

const (
	RoleRead Role = iota
	RoleWrite
)

// Merge concatenates the given lists in order and removes duplicates,
// keeping the first occurrence of each URL. Callers pass sources in
// precedence order (explicit input first, then coordinate hints, fetched
// announcement relays, relay-list relays, content-derived relays) because
// downstream consumers may truncate to the first few entries.
func Merge(sources ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, source := range sources {
		for _, url := range source {
			normalized := nostr.NormalizeURL(url)
			if normalized == "" {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			out = append(out, normalized)
		}
	}
	return out
}

// ExtractRole returns the relay URLs of a NIP-65 relay-list event whose
// role marker is absent (meaning both roles) or matches the requested
// role. A nil event yields an empty list; a missing relay list is a
// normal condition, never an error.
func ExtractRole(relayList *nostr.Event, role Role) []string {
	if relayList == nil || relayList.Kind != model.KindRelayList {
		return nil
	}
	marker := "read"
	if role == RoleWrite {
		marker = "write"
	}
	var out []string
	for _, tag := range relayList.Tags {
		if len(tag) < 2 || tag[0] != "r" {
			continue
		}
		if len(tag) >= 3 && tag[2] != "" && tag[2] != marker {
			continue
		}
		out = append(out, tag[1])
	}
	return out
}

// ReadRelays is ExtractRole(evt, RoleRead).
func ReadRelays(relayList *nostr.Event) []string {
	return ExtractRole(relayList, RoleRead)
}

// WriteRelays is ExtractRole(evt, RoleWrite).
func WriteRelays(relayList *nostr.Event) []string {
	return ExtractRole(relayList, RoleWrite)
}
