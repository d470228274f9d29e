package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
	"github.com/nitcli/nit/internal/status"
)

// entity is a fetched issue, patch, or pull request together with the
// ids its status trail is anchored to.
type entity struct {
	event  *nostr.Event
	family model.Family
	// rootID anchors the status trail. For a patch revision this is the
	// original root, not the revision itself.
	rootID string
	// revisionID is set when the addressed patch is a root revision.
	revisionID string
	coords     []model.Coordinate
	// announcements parallels coords. Every targeted repository must
	// still be announced somewhere, since the announcements carry the
	// maintainer set that authorizes transitions.
	announcements []*nostr.Event
}

func notFoundFor(family model.Family) error {
	switch family {
	case model.FamilyIssue:
		return model.ErrIssueNotFound
	case model.FamilyPatch:
		return model.ErrPatchNotFound
	default:
		return model.ErrPRNotFound
	}
}

func entityKind(family model.Family) int {
	switch family {
	case model.FamilyIssue:
		return model.KindIssue
	case model.FamilyPatch:
		return model.KindPatch
	default:
		return model.KindPullRequest
	}
}

// fetchEntity retrieves the addressed entity and everything status
// resolution needs around it: the target repositories from its "a" tags
// and their announcements.
func (rt *runtime) fetchEntity(ctx context.Context, family model.Family, ref model.EventRef) (*entity, error) {
	relays := relayset.Merge(rt.relays, ref.Relays)
	evt, err := rt.gw.FetchEvent(ctx, relays, ref.ID)
	if err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			return nil, notFoundFor(family)
		}
		return nil, err
	}
	if evt.Kind != entityKind(family) {
		return nil, fmt.Errorf("event %s is a kind %d event, not a %s", ref.ID, evt.Kind, family)
	}

	ent := &entity{event: evt, family: family, rootID: evt.ID}
	if family == model.FamilyPatch && model.IsRevisionPatch(evt) {
		root, err := model.RootFromRevision(evt)
		if err != nil {
			return nil, err
		}
		ent.rootID = root
		ent.revisionID = evt.ID
	}

	ent.coords, err = model.RootCoordinates(evt)
	if err != nil {
		return nil, err
	}
	ent.announcements, err = rt.gw.FetchAnnouncements(ctx, ent.coords, relays)
	if err != nil {
		return nil, err
	}
	return ent, nil
}

// signers returns the authorized status signer set for the entity.
func (e *entity) signers() []string {
	return status.Signers(e.coords, e.announcements, e.event.PubKey)
}

// targets projects the entity's repositories into the shape publish
// expects.
func (e *entity) targets() *targets {
	t := &targets{coords: e.coords, events: e.announcements}
	for i, evt := range e.announcements {
		t.anns = append(t.anns, model.DecodeAnnouncement(evt, e.coords[i].Identifier))
	}
	return t
}

// resolveStatus computes the entity's current status over the command
// relays plus everything the entity's repositories announce.
func (rt *runtime) resolveStatus(ctx context.Context, ent *entity) (status.Resolution, []string, error) {
	signers := ent.signers()
	relays := relayset.Merge(rt.relays, ent.targets().relays())
	resolver := status.NewResolver(rt.gw, relays)
	res, err := resolver.Resolve(ctx, ent.family, ent.rootID, ent.revisionID, signers)
	if err != nil {
		return status.Resolution{}, nil, err
	}
	return res, signers, nil
}

// transition is one lifecycle change: which state to enter, the rule
// that must allow it, and the commit evidence for merges and applies.
type transition struct {
	to    model.Status
	guard status.Guard

	mergeCommit    string
	appliedCommits []string
	mergedPatches  []string
}

// runTransition is the shared body of every close/reopen/draft/apply/
// merge/resolve command: fetch the entity, resolve its current status,
// validate the transition, and publish the status event to the signer
// set's relays.
func (rt *runtime) runTransition(ctx context.Context, family model.Family, ref model.EventRef, tr transition) error {
	ent, err := rt.fetchEntity(ctx, family, ref)
	if err != nil {
		return err
	}
	res, signers, err := rt.resolveStatus(ctx, ent)
	if err != nil {
		return err
	}
	if err := tr.guard(res.Status); err != nil {
		return err
	}

	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	tg := ent.targets()
	evt, err := builder.Status(ctx, events.StatusInput{
		Status:         tr.to,
		Family:         family,
		RootID:         ent.rootID,
		RevisionID:     ent.revisionID,
		Coordinates:    ent.coords,
		Signers:        signers,
		RelayHint:      tg.relayHint(),
		MergeCommit:    tr.mergeCommit,
		AppliedCommits: tr.appliedCommits,
		MergedPatches:  tr.mergedPatches,
	})
	if err != nil {
		return err
	}

	nevent, err := rt.publish(ctx, evt, publishInput{
		targets:     tg,
		extraRelays: ref.Relays,
		notify:      signers,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s status created: %s\n", familyDisplay(family), nevent)
	return nil
}

func familyDisplay(family model.Family) string {
	switch family {
	case model.FamilyIssue:
		return "Issue"
	case model.FamilyPatch:
		return "Patch"
	default:
		return "Pull request"
	}
}

// targetRef extracts the positional entity argument of a transition
// command.
func targetRef(c *cli.Context) (model.EventRef, error) {
	if c.NArg() != 1 {
		return model.EventRef{}, fmt.Errorf("expected exactly one event argument, got %d", c.NArg())
	}
	return model.ParseEventRef(c.Args().First())
}
