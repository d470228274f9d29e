package model

import (
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// EventRef points at an event by id with zero or more advisory relay hints.
// The bare "note1" form carries no hints; "nevent1" may carry some. Absent
// hints are normal, never an error.
type EventRef struct {
	ID     string
	Relays []string
}

// ParseEventRef parses a "note1..." or "nevent1..." reference, with an
// optional "nostr:" prefix.
func ParseEventRef(s string) (EventRef, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "nostr:")

	switch {
	case strings.HasPrefix(s, "nevent1"):
		prefix, value, err := nip19.Decode(s)
		if err != nil || prefix != "nevent" {
			return EventRef{}, &DecodeError{What: "event id", Raw: s}
		}
		pointer, ok := value.(nostr.EventPointer)
		if !ok {
			return EventRef{}, &DecodeError{What: "event id", Raw: s}
		}
		return EventRef{ID: pointer.ID, Relays: pointer.Relays}, nil
	case strings.HasPrefix(s, "note1"):
		prefix, value, err := nip19.Decode(s)
		if err != nil || prefix != "note" {
			return EventRef{}, &DecodeError{What: "event id", Raw: s}
		}
		id, ok := value.(string)
		if !ok {
			return EventRef{}, &DecodeError{What: "event id", Raw: s}
		}
		return EventRef{ID: id}, nil
	}
	return EventRef{}, &DecodeError{What: "event id, must start with note1 or nevent1", Raw: s}
}

// Nevent encodes the reference as a shareable nevent with at most three
// unique relay hints.
func Nevent(eventID string, relays []string) (string, error) {
	nevent, err := nip19.EncodeEvent(eventID, truncateRelays(relays, 3), "")
	if err != nil {
		return "", fmt.Errorf("encoding nevent: %w", err)
	}
	return nevent, nil
}

// EventIDs extracts the ids of the given references.
func EventIDs(refs []EventRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

// RefRelays collects every relay hint of the given references.
func RefRelays(refs []EventRef) []string {
	var relays []string
	for _, r := range refs {
		relays = append(relays, r.Relays...)
	}
	return relays
}
