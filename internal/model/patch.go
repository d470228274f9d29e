package model

import (
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// IsRootPatch reports whether the event is the root of a patch series.
func IsRootPatch(evt *nostr.Event) bool {
	return evt.Kind == KindPatch && hasHashtag(evt, RootHashtag)
}

// IsRevisionPatch reports whether the event is a root-revision patch,
// accepting the legacy hashtag spelling.
func IsRevisionPatch(evt *nostr.Event) bool {
	return evt.Kind == KindPatch &&
		(hasHashtag(evt, RevisionHashtag) || hasHashtag(evt, LegacyRevisionHashtag))
}

// RootFromRevision extracts the original root patch id from a root-revision
// event, via its reply-marked "e" tag.
func RootFromRevision(evt *nostr.Event) (string, error) {
	for _, tag := range evt.Tags {
		if len(tag) >= 4 && tag[0] == "e" && tag[3] == MarkerReply {
			if !nostr.IsValid32ByteHex(tag[1]) {
				return "", &DecodeError{What: "event id in e tag", Raw: tag[1]}
			}
			return tag[1], nil
		}
	}
	return "", &DecodeError{What: "patch revision, no e-reply to the root patch", Raw: evt.ID}
}

// Subject returns the subject tag of an issue, patch, or pull request, or
// "N/A" when absent.
func Subject(evt *nostr.Event) string {
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == "subject" {
			return tag[1]
		}
	}
	return "N/A"
}

// Labels returns the entity's hashtag labels formatted as "#bug, #feature".
func Labels(evt *nostr.Event) string {
	var labels []string
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == "t" {
			labels = append(labels, "#"+tag[1])
		}
	}
	return strings.Join(labels, ", ")
}

// RootCoordinates extracts the repository coordinates an entity is
// addressed to, from its "a" tags.
func RootCoordinates(evt *nostr.Event) ([]Coordinate, error) {
	var coords []Coordinate
	for _, tag := range evt.Tags {
		if len(tag) < 2 || tag[0] != "a" {
			continue
		}
		parts := strings.SplitN(tag[1], ":", 3)
		if len(parts) != 3 || parts[0] != "30617" {
			continue
		}
		c := Coordinate{PubKey: parts[1], Identifier: parts[2]}
		if len(tag) >= 3 && tag[2] != "" {
			c.Relays = []string{tag[2]}
		}
		coords = append(coords, c)
	}
	if len(coords) == 0 {
		return nil, &DecodeError{What: "entity, no target repository coordinate", Raw: evt.ID}
	}
	return DedupCoordinates(coords), nil
}

// ParentRef returns the id the event replies to, preferring a reply-marked
// "e" tag, then a root-marked one, then a bare one. Used by comment root
// discovery.
func ParentRef(evt *nostr.Event) (EventRef, bool) {
	var root, bare *EventRef
	for _, tag := range evt.Tags {
		if len(tag) < 2 || (tag[0] != "e" && tag[0] != "E") {
			continue
		}
		ref := EventRef{ID: tag[1]}
		if len(tag) >= 3 && tag[2] != "" {
			ref.Relays = []string{tag[2]}
		}
		marker := ""
		if len(tag) >= 4 {
			marker = tag[3]
		}
		switch marker {
		case MarkerReply:
			return ref, true
		case MarkerRoot:
			if root == nil {
				root = &ref
			}
		default:
			if bare == nil {
				bare = &ref
			}
		}
	}
	if root != nil {
		return *root, true
	}
	if bare != nil {
		return *bare, true
	}
	return EventRef{}, false
}

func hasHashtag(evt *nostr.Event, value string) bool {
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == "t" && tag[1] == value {
			return true
		}
	}
	return false
}
