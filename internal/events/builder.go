// Package events assembles outgoing domain events with the addressing,
// authorization and mention tag sets their audiences need to discover
// them. All constructors return unsigned events with the id precomputed
// so callers can chain references before signing.
package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip13"

	"github.com/nitcli/nit/internal/model"
)

// Alt tag prefixes, shown by clients that do not understand NIP-34.
const (
	issueAltPrefix = "git issue: "
	patchAltPrefix = "git patch: "
)

// Builder constructs events for one author with a fixed proof-of-work
// difficulty. Difficulty 0 skips the work.
type Builder struct {
	author     string
	difficulty int
}

func NewBuilder(author string, difficulty int) *Builder {
	return &Builder{author: author, difficulty: difficulty}
}

// finish stamps the event, mines proof of work when configured, and
// fixes the id so later events can reference this one before signing.
func (b *Builder) finish(ctx context.Context, evt *nostr.Event) (*nostr.Event, error) {
	evt.PubKey = b.author
	evt.CreatedAt = nostr.Now()
	if b.difficulty > 0 {
		nonce, err := nip13.DoWork(ctx, *evt, b.difficulty)
		if err != nil {
			return nil, fmt.Errorf("mining proof of work: %w", err)
		}
		evt.Tags = append(evt.Tags, nonce)
	}
	evt.ID = evt.GetID()
	return evt, nil
}

// dedupTags collapses tags that share a kind and primary value, keeping
// the first occurrence. Overlapping tag sources routinely double-tag the
// same key, so every constructor runs its collision-safe tags through
// this before appending marker-bearing ones.
func dedupTags(tags nostr.Tags) nostr.Tags {
	seen := make(map[[2]string]bool, len(tags))
	out := make(nostr.Tags, 0, len(tags))
	for _, tag := range tags {
		if len(tag) == 0 {
			continue
		}
		key := [2]string{tag[0]}
		if len(tag) > 1 {
			key[1] = tag[1]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

// replyTag builds a NIP-10 e tag with a marker. The relay hint may be
// empty.
func replyTag(id, relay, marker string) nostr.Tag {
	return nostr.Tag{"e", id, relay, marker}
}

func kindString(kind int) string {
	return strconv.Itoa(kind)
}

func coordinateTags(coords []model.Coordinate, relayHint string) nostr.Tags {
	tags := make(nostr.Tags, 0, len(coords))
	for _, c := range coords {
		if relayHint != "" {
			tags = append(tags, nostr.Tag{"a", c.Identity(), relayHint})
		} else {
			tags = append(tags, nostr.Tag{"a", c.Identity()})
		}
	}
	return tags
}

func pubkeyTags(pubkeys ...[]string) nostr.Tags {
	var tags nostr.Tags
	for _, group := range pubkeys {
		for _, pk := range group {
			tags = append(tags, nostr.Tag{"p", pk})
		}
	}
	return tags
}

func hashtagTags(labels []string) nostr.Tags {
	tags := make(nostr.Tags, 0, len(labels))
	for _, label := range labels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			tags = append(tags, nostr.Tag{"t", trimmed})
		}
	}
	return tags
}

// SplitSubject derives a subject from free text: an explicit subject
// wins, otherwise the first line is the subject and the remainder the
// body. Splitting happens at the first newline only.
func SplitSubject(subject, text string) (string, string) {
	if subject != "" {
		return subject, strings.TrimSpace(text)
	}
	head, rest, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(head), strings.TrimSpace(rest)
}
