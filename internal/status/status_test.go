package status

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitcli/nit/internal/model"
)

const (
	ownerKey      = "82341f882b6eabcd2ba7f1ef90aad961cf074af15b9ef44a09f9d2a8fbfbe6a2"
	maintainerKey = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	authorKey     = "97c70a44366a6535c145b333f973ea86dfdc2d7a99da618c40c64705ad98e322"
	strangerKey   = "a723805cda67251191c8786f4da58f797e6977582301354ba8e91bcb0342dc9c"

	rootID     = "b9d33e5b6d3d1bd955f46316a8fa3a57a7b6f0e71c0ed6a2eea284e75dfea99a"
	revisionID = "c4f2c9d8602c1a836d0e1a77d11fb833e6b51751bf0939376b07fca6dbbad7da"
)

// fakeStore plays an over-permissive relay: it returns everything it
// holds without honoring the filter, so the resolver's own checks are
// what keeps bad events out.
type fakeStore struct {
	events []*nostr.Event
	err    error
}

func (s *fakeStore) FetchAll(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func statusEvent(id string, kind int, author string, at nostr.Timestamp, tags ...nostr.Tag) *nostr.Event {
	allTags := nostr.Tags{{"e", rootID, "", model.MarkerRoot}}
	allTags = append(allTags, tags...)
	return &nostr.Event{
		ID:        id,
		Kind:      kind,
		PubKey:    author,
		CreatedAt: at,
		Tags:      allTags,
	}
}

func TestSigners(t *testing.T) {
	coords := []model.Coordinate{{PubKey: ownerKey, Identifier: "nit"}}
	ann := &nostr.Event{
		PubKey: ownerKey,
		Kind:   model.KindRepoAnnouncement,
		Tags:   nostr.Tags{{"maintainers", maintainerKey, authorKey}},
	}

	signers := Signers(coords, []*nostr.Event{ann}, authorKey)

	assert.Equal(t, []string{ownerKey, maintainerKey, authorKey}, signers)
}

func TestResolveDefaultsToOpen(t *testing.T) {
	r := NewResolver(&fakeStore{}, nil)

	res, err := r.Resolve(context.Background(), model.FamilyIssue, rootID, "", []string{ownerKey})

	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, res.Status)
	assert.Nil(t, res.Event)
}

func TestResolvePicksNewest(t *testing.T) {
	open := statusEvent("aa01", model.KindStatusOpen, ownerKey, 100)
	closed := statusEvent("aa02", model.KindStatusClosed, maintainerKey, 200)

	for _, events := range [][]*nostr.Event{
		{open, closed},
		{closed, open},
	} {
		r := NewResolver(&fakeStore{events: events}, nil)
		res, err := r.Resolve(context.Background(), model.FamilyPatch, rootID, "", []string{ownerKey, maintainerKey})
		require.NoError(t, err)
		assert.Equal(t, model.StatusClosed, res.Status)
		assert.Equal(t, "aa02", res.Event.ID)
	}
}

func TestResolveTimestampTieBreaksOnID(t *testing.T) {
	a := statusEvent("aa01", model.KindStatusClosed, ownerKey, 100)
	b := statusEvent("bb02", model.KindStatusOpen, ownerKey, 100)

	for _, events := range [][]*nostr.Event{{a, b}, {b, a}} {
		r := NewResolver(&fakeStore{events: events}, nil)
		res, err := r.Resolve(context.Background(), model.FamilyPatch, rootID, "", []string{ownerKey})
		require.NoError(t, err)
		assert.Equal(t, "aa01", res.Event.ID)
		assert.Equal(t, model.StatusClosed, res.Status)
	}
}

func TestResolveIgnoresUnauthorizedSigners(t *testing.T) {
	trusted := statusEvent("aa01", model.KindStatusOpen, ownerKey, 100)
	forged := &nostr.Event{
		ID:        "ff01",
		Kind:      model.KindStatusClosed,
		PubKey:    strangerKey,
		CreatedAt: 500,
		Tags:      nostr.Tags{{"e", rootID, "", model.MarkerRoot}},
	}
	r := NewResolver(&fakeStore{events: []*nostr.Event{trusted, forged}}, nil)
	res, err := r.Resolve(context.Background(), model.FamilyPatch, rootID, "", []string{ownerKey})

	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, res.Status)
	assert.Equal(t, "aa01", res.Event.ID)
}

func TestResolveUnknownKindFails(t *testing.T) {
	bogus := statusEvent("aa01", model.KindStatusDraft, ownerKey, 100)

	r := NewResolver(&fakeStore{events: []*nostr.Event{bogus}}, nil)
	_, err := r.Resolve(context.Background(), model.FamilyIssue, rootID, "", []string{ownerKey})

	var decodeErr *model.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestResolveRevisionClosure(t *testing.T) {
	merged := statusEvent("aa01", model.KindStatusMergedApplied, ownerKey, 100)

	r := NewResolver(&fakeStore{events: []*nostr.Event{merged}}, nil)

	// The root itself reads as merged.
	res, err := r.Resolve(context.Background(), model.FamilyPatch, rootID, "", []string{ownerKey})
	require.NoError(t, err)
	assert.Equal(t, model.StatusMergedApplied, res.Status)

	// A revision the merge never mentioned reads as closed.
	res, err = r.Resolve(context.Background(), model.FamilyPatch, rootID, revisionID, []string{ownerKey})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, res.Status)
}

func TestResolveRevisionMentionedStaysMerged(t *testing.T) {
	merged := statusEvent("aa01", model.KindStatusMergedApplied, ownerKey, 100,
		nostr.Tag{"e", revisionID, "", model.MarkerReply})

	r := NewResolver(&fakeStore{events: []*nostr.Event{merged}}, nil)
	res, err := r.Resolve(context.Background(), model.FamilyPatch, rootID, revisionID, []string{ownerKey})

	require.NoError(t, err)
	assert.Equal(t, model.StatusMergedApplied, res.Status)
}

func TestGuards(t *testing.T) {
	cases := []struct {
		name    string
		guard   Guard
		from    model.Status
		message string
	}{
		{"apply applied patch", GuardPatchApply, model.StatusMergedApplied, "You can't apply an already applied patch"},
		{"apply drafted patch", GuardPatchApply, model.StatusDraft, "You can't apply a drafted patch"},
		{"merge closed patch", GuardPatchMerge, model.StatusClosed, "You can't merge a closed patch"},
		{"merge draft patch", GuardPatchMerge, model.StatusDraft, "You can't merge a draft patch"},
		{"close merged patch", GuardPatchClose, model.StatusMergedApplied, "You can't close a merged/applied patch"},
		{"reopen open patch", GuardPatchReopen, model.StatusOpen, "You can't reopen an already open patch"},
		{"draft draft pull request", GuardPRDraft, model.StatusDraft, "You can't draft an already draft pull request"},
		{"apply draft pull request", GuardPRApply, model.StatusDraft, "Cannot apply a draft pull request"},
		{"close closed issue", GuardIssueClose, model.StatusClosed, "You can't close an already closed issue"},
		{"resolve resolved issue", GuardIssueResolve, model.StatusMergedApplied, "You can't resolve an already resolved issue"},
		{"reopen open issue", GuardIssueReopen, model.StatusOpen, "You can't reopen an already open issue"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.guard(tc.from)
			var transitionErr *model.TransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tc.message, transitionErr.Reason)
		})
	}
}

func TestGuardsAllowLegalTransitions(t *testing.T) {
	assert.NoError(t, GuardPatchApply(model.StatusOpen))
	assert.NoError(t, GuardPatchClose(model.StatusDraft))
	assert.NoError(t, GuardPatchReopen(model.StatusClosed))
	assert.NoError(t, GuardPRDraft(model.StatusOpen))
	assert.NoError(t, GuardIssueReopen(model.StatusClosed))
	assert.NoError(t, GuardIssueResolve(model.StatusOpen))
}
