package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
)

// FetchEvent retrieves a single event by id.
func (g *Gateway) FetchEvent(ctx context.Context, relays []string, id string) (*nostr.Event, error) {
	return g.FetchOne(ctx, relays, nostr.Filter{IDs: []string{id}, Limit: 1})
}

// FetchAnnouncement retrieves the newest repository announcement for the
// coordinate, looking at the coordinate's relay hints plus extra.
func (g *Gateway) FetchAnnouncement(ctx context.Context, coord model.Coordinate, extra []string) (*nostr.Event, error) {
	relays := relayset.Merge(coord.Relays, extra)
	evt, err := g.FetchOne(ctx, relays, nostr.Filter{
		Kinds:   []int{model.KindRepoAnnouncement},
		Authors: []string{coord.PubKey},
		Tags:    nostr.TagMap{"d": []string{coord.Identifier}},
		Limit:   1,
	})
	if errors.Is(err, model.ErrEventNotFound) {
		return nil, model.ErrRepoNotFound
	}
	return evt, err
}

// FetchAnnouncements retrieves announcements for all coordinates in
// parallel. A coordinate with no announcement on any relay fails the
// whole call, because later steps need the full maintainer set.
func (g *Gateway) FetchAnnouncements(ctx context.Context, coords []model.Coordinate, extra []string) ([]*nostr.Event, error) {
	events := make([]*nostr.Event, len(coords))
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, coord := range coords {
		grp.Go(func() error {
			evt, err := g.FetchAnnouncement(grpCtx, coord, extra)
			if err != nil {
				return err
			}
			events[i] = evt
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchRepoState retrieves the newest repository state event for the
// coordinate, or nil when the repository never published one.
func (g *Gateway) FetchRepoState(ctx context.Context, coord model.Coordinate, extra []string) (*nostr.Event, error) {
	relays := relayset.Merge(coord.Relays, extra)
	evt, err := g.FetchOne(ctx, relays, nostr.Filter{
		Kinds:   []int{model.KindRepoState},
		Authors: []string{coord.PubKey},
		Tags:    nostr.TagMap{"d": []string{coord.Identifier}},
		Limit:   1,
	})
	if errors.Is(err, model.ErrEventNotFound) {
		return nil, nil
	}
	return evt, err
}

// RelayList retrieves pubkey's newest relay list and returns the relays
// it marks for role. Missing lists yield an empty slice, not an error.
func (g *Gateway) RelayList(ctx context.Context, relays []string, pubkey string, role relayset.Role) []string {
	evt, err := g.FetchOne(ctx, relays, nostr.Filter{
		Kinds:   []int{model.KindRelayList},
		Authors: []string{pubkey},
		Limit:   1,
	})
	if err != nil {
		if !errors.Is(err, model.ErrEventNotFound) {
			log.Debug().Str("pubkey", pubkey).Err(err).Msg("relay list lookup failed")
		}
		return nil
	}
	return relayset.ExtractRole(evt, role)
}

// RelayListsOf retrieves relay lists for several pubkeys in parallel and
// merges the relays they mark for role, preserving the pubkey order.
func (g *Gateway) RelayListsOf(ctx context.Context, relays []string, pubkeys []string, role relayset.Role) []string {
	lists := make([][]string, len(pubkeys))
	var wg sync.WaitGroup
	for i, pk := range pubkeys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lists[i] = g.RelayList(ctx, relays, pk, role)
		}()
	}
	wg.Wait()
	return relayset.Merge(lists...)
}

// ProfileName retrieves pubkey's kind-0 metadata and returns the best
// human-readable name it offers. Missing or undecodable profiles yield
// an empty string.
func (g *Gateway) ProfileName(ctx context.Context, relays []string, pubkey string) string {
	evt, err := g.FetchOne(ctx, relays, nostr.Filter{
		Kinds:   []int{model.KindProfileMetadata},
		Authors: []string{pubkey},
		Limit:   1,
	})
	if err != nil {
		if !errors.Is(err, model.ErrEventNotFound) {
			log.Debug().Str("pubkey", pubkey).Err(err).Msg("profile lookup failed")
		}
		return ""
	}
	var meta struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal([]byte(evt.Content), &meta); err != nil {
		log.Debug().Str("pubkey", pubkey).Err(err).Msg("profile metadata undecodable")
		return ""
	}
	if meta.DisplayName != "" {
		return meta.DisplayName
	}
	return meta.Name
}

// EventAuthor retrieves the event with the given id just to learn who
// signed it.
func (g *Gateway) EventAuthor(ctx context.Context, relays []string, id string) (string, error) {
	evt, err := g.FetchEvent(ctx, relays, id)
	if err != nil {
		return "", err
	}
	return evt.PubKey, nil
}
