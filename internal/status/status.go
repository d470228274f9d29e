// Package status derives the lifecycle state of issues, patches and pull
// requests from the trail of status events their authorized signers left
// behind, and validates requested transitions against it.
package status

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog/log"

	"github.com/nitcli/nit/internal/model"
)

// Store is the slice of the relay gateway this package needs.
type Store interface {
	FetchAll(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error)
}

// Signers computes the set of public keys trusted to emit status events
// for an entity: the repository owners, every announced maintainer, and
// the entity's own author. Order of first appearance is kept so the set
// can double as a deterministic mention list.
func Signers(coords []model.Coordinate, announcements []*nostr.Event, entityAuthor string) []string {
	var (
		seen    = map[string]bool{}
		signers []string
	)
	add := func(pk string) {
		if pk != "" && !seen[pk] {
			seen[pk] = true
			signers = append(signers, pk)
		}
	}
	for _, coord := range coords {
		add(coord.PubKey)
	}
	for _, evt := range announcements {
		if evt == nil {
			continue
		}
		add(evt.PubKey)
		for _, maintainer := range model.DecodeAnnouncement(evt, "").Maintainers {
			add(maintainer)
		}
	}
	add(entityAuthor)
	return signers
}

// Resolution is the outcome of a status query. Event is nil when no
// status event existed and the state defaulted to Open.
type Resolution struct {
	Status model.Status
	Event  *nostr.Event
}

// Resolver answers status queries against a fixed relay set.
type Resolver struct {
	store  Store
	relays []string
}

func NewResolver(store Store, relays []string) *Resolver {
	return &Resolver{store: store, relays: relays}
}

// Resolve computes the current status of the entity rooted at rootID.
// Only events authored by signers count. The winner is the event with
// the highest created_at; equal timestamps fall back to the smaller
// event id so the result does not depend on relay arrival order. With
// no winner the entity is Open.
//
// revisionID is set when the caller is looking at a patch revision
// rather than the bare root. A merge recorded against a different
// revision closes this one.
func (r *Resolver) Resolve(ctx context.Context, family model.Family, rootID, revisionID string, signers []string) (Resolution, error) {
	events, err := r.store.FetchAll(ctx, r.relays, nostr.Filter{
		Kinds:   model.StatusKinds(family),
		Authors: signers,
		Tags:    nostr.TagMap{"e": []string{rootID}},
	})
	if err != nil {
		return Resolution{}, err
	}

	authorized := make(map[string]bool, len(signers))
	for _, pk := range signers {
		authorized[pk] = true
	}

	// Relays are asked to filter by author, but a misbehaving relay may
	// return more than the filter allows.
	var winner *nostr.Event
	for _, evt := range events {
		if !authorized[evt.PubKey] {
			continue
		}
		if winner == nil ||
			evt.CreatedAt > winner.CreatedAt ||
			(evt.CreatedAt == winner.CreatedAt && evt.ID < winner.ID) {
			winner = evt
		}
	}
	if winner == nil {
		return Resolution{Status: model.StatusOpen}, nil
	}

	state, err := model.StatusFromKind(family, winner.Kind)
	if err != nil {
		return Resolution{}, err
	}

	if family == model.FamilyPatch && revisionID != "" && revisionID != rootID &&
		state == model.StatusMergedApplied && !refersToRevision(winner, revisionID) {
		log.Debug().
			Str("root", rootID).
			Str("revision", revisionID).
			Msg("root merged through another revision")
		return Resolution{Status: model.StatusClosed, Event: winner}, nil
	}
	return Resolution{Status: state, Event: winner}, nil
}

// refersToRevision reports whether the status event reply-references the
// given revision id.
func refersToRevision(evt *nostr.Event, revisionID string) bool {
	for _, tag := range evt.Tags {
		if len(tag) >= 4 && tag[0] == "e" && tag[1] == revisionID && tag[3] == model.MarkerReply {
			return true
		}
	}
	return false
}
