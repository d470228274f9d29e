package events

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/model"
)

// StatusInput describes a lifecycle transition for an issue, patch, or
// pull request. MergeCommit and AppliedCommits are mutually exclusive
// and only meaningful when transitioning into the merged/applied state.
type StatusInput struct {
	Status model.Status
	Family model.Family
	RootID string
	// RevisionID is set when the transition was requested against a
	// patch revision rather than the original root.
	RevisionID  string
	Coordinates []model.Coordinate
	// Signers are the authorized signer set, entity author included.
	// Each one gets a mention so it can evaluate the transition.
	Signers   []string
	RelayHint string
	// MergeCommit records the commit that merged the series.
	MergeCommit string
	// AppliedCommits record the commits the series was applied as.
	AppliedCommits []string
	// MergedPatches quote-references every patch of the series being
	// marked merged or applied.
	MergedPatches []string
}

// Status builds a status transition event reply-anchored to the entity
// root. When the transition was aimed at a patch revision, the root tag
// still points at the original root so the whole series shares one
// status trail, and the revision travels as a reply reference.
func (b *Builder) Status(ctx context.Context, in StatusInput) (*nostr.Event, error) {
	tags := nostr.Tags{replyTag(in.RootID, in.RelayHint, model.MarkerRoot)}
	tags = append(tags, pubkeyTags(in.Signers)...)
	tags = append(tags, coordinateTags(in.Coordinates, in.RelayHint)...)

	if in.Status == model.StatusMergedApplied {
		if in.MergeCommit != "" {
			tags = append(tags,
				nostr.Tag{"merge-commit", in.MergeCommit},
				nostr.Tag{"r", in.MergeCommit})
		}
		if len(in.AppliedCommits) > 0 {
			tags = append(tags, append(nostr.Tag{"applied-as-commits"}, in.AppliedCommits...))
			for _, commit := range in.AppliedCommits {
				tags = append(tags, nostr.Tag{"r", commit})
			}
		}
		for _, id := range in.MergedPatches {
			tags = append(tags, nostr.Tag{"q", id, in.RelayHint})
		}
	}

	tags = dedupTags(tags)
	if in.RevisionID != "" && in.RevisionID != in.RootID {
		tags = append(tags, replyTag(in.RevisionID, in.RelayHint, model.MarkerReply))
	}

	return b.finish(ctx, &nostr.Event{
		Kind: in.Status.Kind(),
		Tags: tags,
	})
}
