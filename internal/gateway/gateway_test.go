package gateway

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"

	"github.com/nitcli/nit/internal/model"
)

func TestFetchOneNoRelays(t *testing.T) {
	g := New()
	defer g.Close()

	_, err := g.FetchOne(context.Background(), nil, nostr.Filter{Kinds: []int{model.KindIssue}})
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestFetchAllNoRelays(t *testing.T) {
	g := New()
	defer g.Close()

	_, err := g.FetchAll(context.Background(), nil, nostr.Filter{Kinds: []int{model.KindIssue}})
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestOutcomeAllFailed(t *testing.T) {
	assert.True(t, Outcome{}.AllFailed())
	assert.False(t, Outcome{Success: []string{"wss://relay.example.com"}}.AllFailed())
}

func TestFindRootShortCircuits(t *testing.T) {
	g := New()
	defer g.Close()
	ctx := context.Background()

	// Thread roots need no walking.
	for _, kind := range []int{model.KindIssue, model.KindPatch, model.KindPullRequest, model.KindPRUpdate} {
		root, err := g.FindRoot(ctx, nil, &nostr.Event{Kind: kind})
		assert.NoError(t, err)
		assert.Nil(t, root)
	}

	// Anything that is neither a root nor a comment cannot be replied to.
	_, err := g.FindRoot(ctx, nil, &nostr.Event{Kind: model.KindStatusOpen})
	assert.ErrorIs(t, err, model.ErrCannotReply)

	// A comment with no parent reference is a broken thread.
	_, err = g.FindRoot(ctx, nil, &nostr.Event{Kind: model.KindComment})
	assert.ErrorIs(t, err, model.ErrCannotReply)
}
