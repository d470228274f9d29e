package events

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/content"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/patchfile"
)

// SeriesInput describes a patch series to publish. When OriginalRoot is
// set the first patch becomes a revision of that root instead of a new
// root.
type SeriesInput struct {
	Patches      []patchfile.Patch
	OriginalRoot string
	Coordinates  []model.Coordinate
	// EUC is the repository's earliest-unique-commit hash, when announced.
	EUC       string
	RelayHint string
}

// Series is a built patch series plus the relay hints its cover letters
// and bodies mentioned.
type Series struct {
	Events        []*nostr.Event
	ContentRelays []string
}

// PatchSeries builds the chain of patch events: the first patch is the
// root (or a revision replying to the original root), and every later
// patch replies to its predecessor while still carrying a root marker.
func (b *Builder) PatchSeries(ctx context.Context, in SeriesInput) (Series, error) {
	if len(in.Coordinates) == 0 {
		return Series{}, model.ErrEmptyCoordinates
	}
	if len(in.Patches) == 0 {
		return Series{}, model.ErrEmptyContent
	}

	var series Series
	root, err := b.patch(ctx, in, in.Patches[0], "", "")
	if err != nil {
		return Series{}, err
	}
	series.append(root)

	previous := root.event.ID
	for _, p := range in.Patches[1:] {
		evt, err := b.patch(ctx, in, p, root.event.ID, previous)
		if err != nil {
			return Series{}, err
		}
		previous = evt.event.ID
		series.append(evt)
	}
	return series, nil
}

type builtPatch struct {
	event  *nostr.Event
	relays []string
}

func (s *Series) append(p builtPatch) {
	s.Events = append(s.Events, p.event)
	s.ContentRelays = append(s.ContentRelays, p.relays...)
}

// patch builds one patch event. rootID is empty for the first patch of
// the series; previousID is empty for the first patch and otherwise
// points at the predecessor in the chain.
func (b *Builder) patch(ctx context.Context, in SeriesInput, p patchfile.Patch, rootID, previousID string) (builtPatch, error) {
	mentions := content.Scan(p.Body)

	// Marker-bearing e tags share their primary value with each other
	// (a later patch replies to the root twice, once per marker), so
	// only the marker-free tags go through deduplication. Markered tags
	// are appended afterwards, untouched.
	tags := nostr.Tags{
		{"alt", patchAltPrefix + p.Subject},
		{"description", p.Subject},
	}
	tags = append(tags, mentions.Tags()...)
	tags = append(tags, coordinateTags(in.Coordinates, "")...)
	tags = append(tags, pubkeyTags(model.CoordinateOwners(in.Coordinates))...)
	if in.EUC != "" {
		tags = append(tags, nostr.Tag{"r", in.EUC})
	}
	tags = dedupTags(tags)

	switch {
	case rootID != "":
		// A patch inside the series: anchored to the root, replying to
		// its predecessor.
		tags = append(tags, replyTag(rootID, in.RelayHint, model.MarkerRoot))
		tags = append(tags, replyTag(previousID, in.RelayHint, model.MarkerReply))
	case in.OriginalRoot != "":
		// First patch of a revision series.
		tags = append(tags, replyTag(in.OriginalRoot, in.RelayHint, model.MarkerReply))
		tags = append(tags, nostr.Tag{"t", model.RevisionHashtag})
	default:
		tags = append(tags, nostr.Tag{"t", model.RootHashtag})
	}

	evt, err := b.finish(ctx, &nostr.Event{
		Kind:    model.KindPatch,
		Content: p.Raw,
		Tags:    tags,
	})
	if err != nil {
		return builtPatch{}, err
	}
	return builtPatch{event: evt, relays: mentions.Relays()}, nil
}
