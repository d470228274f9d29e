package events

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/content"
	"github.com/nitcli/nit/internal/model"
)

// IssueInput carries everything a new issue event needs.
type IssueInput struct {
	Coordinates []model.Coordinate
	Maintainers []string
	Subject     string
	Body        string
	// Labels are unioned with hashtags found in the body.
	Labels   []string
	Mentions content.Mentions
}

// Issue builds a new issue event addressed to every target repository.
func (b *Builder) Issue(ctx context.Context, in IssueInput) (*nostr.Event, error) {
	if len(in.Coordinates) == 0 {
		return nil, model.ErrEmptyCoordinates
	}

	tags := coordinateTags(in.Coordinates, "")
	tags = append(tags, pubkeyTags(model.CoordinateOwners(in.Coordinates), in.Maintainers)...)
	tags = append(tags, in.Mentions.Tags()...)
	tags = append(tags, hashtagTags(in.Labels)...)
	if in.Subject != "" {
		tags = append(tags,
			nostr.Tag{"subject", in.Subject},
			nostr.Tag{"alt", issueAltPrefix + in.Subject})
	}

	return b.finish(ctx, &nostr.Event{
		Kind:    model.KindIssue,
		Content: in.Body,
		Tags:    dedupTags(tags),
	})
}

// PullRequestInput carries everything a new pull request event needs.
// Exactly one of Clones or Grasp-derived clone URLs must be present;
// the command layer resolves that before calling in.
type PullRequestInput struct {
	Coordinates []model.Coordinate
	Maintainers []string
	Subject     string
	Body        string
	Labels      []string
	Mentions    content.Mentions
	// Commit is the SHA-1 at the tip of the PR branch.
	Commit string
	Branch string
	Clones []string
	// EUC is the repository's earliest-unique-commit hash, when announced.
	EUC       string
	RelayHint string
}

// PullRequest builds a new pull request event.
func (b *Builder) PullRequest(ctx context.Context, in PullRequestInput) (*nostr.Event, error) {
	if len(in.Coordinates) == 0 {
		return nil, model.ErrEmptyCoordinates
	}

	tags := coordinateTags(in.Coordinates, in.RelayHint)
	tags = append(tags, pubkeyTags(model.CoordinateOwners(in.Coordinates), in.Maintainers)...)
	tags = append(tags, in.Mentions.Tags()...)
	tags = append(tags, nostr.Tag{"subject", in.Subject})
	tags = append(tags, hashtagTags(in.Labels)...)
	tags = append(tags, nostr.Tag{"c", in.Commit})
	if in.EUC != "" {
		tags = append(tags, nostr.Tag{"r", in.EUC})
	}
	if in.Branch != "" {
		tags = append(tags, nostr.Tag{"branch-name", in.Branch})
	}
	if len(in.Clones) > 0 {
		tags = append(tags, append(nostr.Tag{"clone"}, in.Clones...))
	}

	return b.finish(ctx, &nostr.Event{
		Kind:    model.KindPullRequest,
		Content: in.Body,
		Tags:    dedupTags(tags),
	})
}

// PRUpdateInput describes a new tip for an existing pull request.
type PRUpdateInput struct {
	Original    *nostr.Event
	Coordinates []model.Coordinate
	Maintainers []string
	Commit      string
	Clones      []string
	RelayHint   string
}

// PRUpdate builds a pull request update event. The original pull request
// is referenced with uppercase NIP-22 scope tags so threaded clients
// attach the update to it.
func (b *Builder) PRUpdate(ctx context.Context, in PRUpdateInput) (*nostr.Event, error) {
	tags := nostr.Tags{
		{"E", in.Original.ID, "", in.Original.PubKey},
		{"P", in.Original.PubKey},
		{"K", kindString(in.Original.Kind)},
	}
	tags = append(tags, coordinateTags(in.Coordinates, in.RelayHint)...)
	tags = append(tags, pubkeyTags(in.Maintainers)...)
	tags = append(tags, nostr.Tag{"c", in.Commit})
	if len(in.Clones) > 0 {
		tags = append(tags, append(nostr.Tag{"clone"}, in.Clones...))
	}

	return b.finish(ctx, &nostr.Event{
		Kind: model.KindPRUpdate,
		Tags: dedupTags(tags),
	})
}
