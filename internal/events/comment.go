package events

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/content"
	"github.com/nitcli/nit/internal/model"
)

// CommentInput describes a threaded comment. Root is nil when the parent
// itself is the thread root.
type CommentInput struct {
	Content   string
	Parent    *nostr.Event
	Root      *nostr.Event
	RelayHint string
	// RepoOwner gets a mention so repository subscribers see the thread
	// move.
	RepoOwner string
	Mentions  content.Mentions
}

// Comment builds a threaded comment event. The thread scope is carried
// by uppercase tags pointing at the root, the immediate parent by their
// lowercase twins.
func (b *Builder) Comment(ctx context.Context, in CommentInput) (*nostr.Event, error) {
	if in.Content == "" {
		return nil, model.ErrEmptyContent
	}

	scope := in.Root
	if scope == nil {
		scope = in.Parent
	}

	tags := nostr.Tags{
		{"E", scope.ID, in.RelayHint, scope.PubKey},
		{"K", kindString(scope.Kind)},
		{"P", scope.PubKey},
		{"e", in.Parent.ID, in.RelayHint, in.Parent.PubKey},
		{"k", kindString(in.Parent.Kind)},
		{"p", in.Parent.PubKey},
	}
	if in.RepoOwner != "" {
		tags = append(tags, nostr.Tag{"p", in.RepoOwner})
	}
	tags = append(tags, in.Mentions.Tags()...)

	return b.finish(ctx, &nostr.Event{
		Kind:    model.KindComment,
		Content: in.Content,
		Tags:    dedupTags(tags),
	})
}
