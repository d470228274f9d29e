package cmd

import (
	"context"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitcli/nit/internal/gateway"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
	"github.com/nitcli/nit/internal/signer"
	"github.com/nitcli/nit/internal/status"
)

const (
	testContributorKey = "97c70a44366a6535c145b333f973ea86dfdc2d7a99da618c40c64705ad98e322"
	testRootPatchID    = "b9d33e5b6d3d1bd955f46316a8fa3a57a7b6f0e71c0ed6a2eea284e75dfea99a"
	testRevisionID     = "4d0f6dcbcf4c7b43e7b62f7f9b55a3b73a01b2c35c2e8ee5c1b12d759f7e0c18"
	testIssueID        = "5ee1a33e1c1e0a26339b2ec41b7bcee9c3a1f0f09f2b1d54b6f07f9f08d6b631"
	testOtherIssueID   = "7cf2b11d9d3f3c47228a0db52c98bdd8e4b2f1e18e3c2e65c7f18e8f19e7c742"
)

// fakeGateway answers from fixed event sets so commands run without a
// relay. FetchAll applies the filters the way a relay would.
type fakeGateway struct {
	mu            sync.Mutex
	events        map[string]*nostr.Event
	announcements map[string]*nostr.Event
	stored        []*nostr.Event
	published     []*nostr.Event
}

func (f *fakeGateway) FetchEvent(ctx context.Context, relays []string, id string) (*nostr.Event, error) {
	if evt, ok := f.events[id]; ok {
		return evt, nil
	}
	return nil, model.ErrEventNotFound
}

func (f *fakeGateway) FetchAll(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error) {
	var out []*nostr.Event
	for _, evt := range f.stored {
		for _, filter := range filters {
			if filter.Matches(evt) {
				out = append(out, evt)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGateway) FetchAnnouncements(ctx context.Context, coords []model.Coordinate, extra []string) ([]*nostr.Event, error) {
	out := make([]*nostr.Event, len(coords))
	for i, coord := range coords {
		ann, ok := f.announcements[coord.Identity()]
		if !ok {
			return nil, model.ErrRepoNotFound
		}
		out[i] = ann
	}
	return out, nil
}

func (f *fakeGateway) FindRoot(ctx context.Context, relays []string, evt *nostr.Event) (*nostr.Event, error) {
	return nil, nil
}

func (f *fakeGateway) ProfileName(ctx context.Context, relays []string, pubkey string) string {
	return ""
}

func (f *fakeGateway) RelayList(ctx context.Context, relays []string, pubkey string, role relayset.Role) []string {
	return nil
}

func (f *fakeGateway) RelayListsOf(ctx context.Context, relays []string, pubkeys []string, role relayset.Role) []string {
	return nil
}

func (f *fakeGateway) Publish(ctx context.Context, relays []string, evt *nostr.Event) gateway.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, evt)
	return gateway.Outcome{Success: relays}
}

func (f *fakeGateway) Broadcast(ctx context.Context, relays []string, events ...*nostr.Event) {}

func (f *fakeGateway) Close() {}

func testRuntime(t *testing.T, gw relayGateway) *runtime {
	t.Helper()
	sg, err := signer.NewLocal(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	return &runtime{
		gw:     gw,
		relays: []string{"wss://relay.example.com"},
		signer: sg,
	}
}

func testCoordinate() model.Coordinate {
	return model.Coordinate{PubKey: testOwnerKey, Identifier: "demo"}
}

func testAnnouncement(coord model.Coordinate) *nostr.Event {
	return &nostr.Event{
		Kind:   model.KindRepoAnnouncement,
		PubKey: coord.PubKey,
		Tags:   nostr.Tags{{"d", coord.Identifier}},
	}
}

func markerValues(evt *nostr.Event, marker string) []string {
	var out []string
	for _, tag := range evt.Tags {
		if len(tag) >= 4 && tag[0] == "e" && tag[3] == marker {
			out = append(out, tag[1])
		}
	}
	return out
}

func TestRunTransitionOnRevisionAnchorsStatusAtRoot(t *testing.T) {
	coord := testCoordinate()
	rootPatch := &nostr.Event{
		ID:     testRootPatchID,
		Kind:   model.KindPatch,
		PubKey: testContributorKey,
		Tags: nostr.Tags{
			{"t", model.RootHashtag},
			{"a", coord.Identity()},
		},
	}
	revision := &nostr.Event{
		ID:     testRevisionID,
		Kind:   model.KindPatch,
		PubKey: testContributorKey,
		Tags: nostr.Tags{
			{"t", model.RevisionHashtag},
			{"e", testRootPatchID, "", model.MarkerReply},
			{"a", coord.Identity()},
		},
	}
	gw := &fakeGateway{
		events:        map[string]*nostr.Event{rootPatch.ID: rootPatch, revision.ID: revision},
		announcements: map[string]*nostr.Event{coord.Identity(): testAnnouncement(coord)},
	}
	rt := testRuntime(t, gw)

	err := rt.runTransition(context.Background(), model.FamilyPatch,
		model.EventRef{ID: testRevisionID},
		transition{to: model.StatusClosed, guard: status.GuardPatchClose})
	require.NoError(t, err)

	require.Len(t, gw.published, 1)
	evt := gw.published[0]
	assert.Equal(t, model.KindStatusClosed, evt.Kind)
	// One trail per series: the status event roots at the original
	// patch and reply-references the addressed revision.
	assert.Equal(t, []string{testRootPatchID}, markerValues(evt, model.MarkerRoot))
	assert.Equal(t, []string{testRevisionID}, markerValues(evt, model.MarkerReply))
}

func TestFetchEntityFailsWithoutAnnouncement(t *testing.T) {
	coord := testCoordinate()
	issue := &nostr.Event{
		ID:     testIssueID,
		Kind:   model.KindIssue,
		PubKey: testContributorKey,
		Tags:   nostr.Tags{{"a", coord.Identity()}},
	}
	gw := &fakeGateway{
		events:        map[string]*nostr.Event{issue.ID: issue},
		announcements: map[string]*nostr.Event{},
	}
	rt := testRuntime(t, gw)

	_, err := rt.fetchEntity(context.Background(), model.FamilyIssue, model.EventRef{ID: testIssueID})
	require.ErrorIs(t, err, model.ErrRepoNotFound)
}

func TestResolveEntitiesKeepsFetchOrder(t *testing.T) {
	coord := testCoordinate()
	open := &nostr.Event{
		ID:     testIssueID,
		Kind:   model.KindIssue,
		PubKey: testContributorKey,
		Tags:   nostr.Tags{{"a", coord.Identity()}},
	}
	closed := &nostr.Event{
		ID:     testOtherIssueID,
		Kind:   model.KindIssue,
		PubKey: testContributorKey,
		Tags:   nostr.Tags{{"a", coord.Identity()}},
	}
	closure := &nostr.Event{
		ID:        testRootPatchID,
		Kind:      model.KindStatusClosed,
		PubKey:    testOwnerKey,
		CreatedAt: nostr.Now(),
		Tags:      nostr.Tags{{"e", testOtherIssueID, "", model.MarkerRoot}},
	}
	ann := testAnnouncement(coord)
	gw := &fakeGateway{stored: []*nostr.Event{closure}}
	rt := testRuntime(t, gw)
	tg := &targets{coords: []model.Coordinate{coord}, events: []*nostr.Event{ann}}

	entries, err := rt.resolveEntities(context.Background(), model.FamilyIssue, tg,
		rt.relays, []*nostr.Event{open, closed})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, testIssueID, entries[0].event.ID)
	assert.Equal(t, model.StatusOpen, entries[0].status)
	assert.Equal(t, testOtherIssueID, entries[1].event.ID)
	assert.Equal(t, model.StatusClosed, entries[1].status)
}
