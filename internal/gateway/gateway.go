// Package gateway maintains relay connections and fans queries and
// publishes out across relay sets. Connections are cached per URL and
// a relay that refused a connection is not retried within a run.
package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nitcli/nit/internal/model"
)

const (
	// connectTimeout bounds a single relay dial or query round trip.
	connectTimeout = 1500 * time.Millisecond
	// bulkTimeout bounds a multi-event fetch, which may need several
	// pages from slow relays.
	bulkTimeout = 5 * connectTimeout
)

// Gateway talks to relays on behalf of the command layer. The zero value
// is not usable; call New.
type Gateway struct {
	mu     sync.Mutex
	relays map[string]*nostr.Relay
	failed map[string]error
}

func New() *Gateway {
	return &Gateway{
		relays: make(map[string]*nostr.Relay),
		failed: make(map[string]error),
	}
}

// Connect returns a live connection to url, dialing it on first use.
// A URL that already failed this run fails again immediately.
func (g *Gateway) Connect(ctx context.Context, url string) (*nostr.Relay, error) {
	url = nostr.NormalizeURL(url)

	g.mu.Lock()
	if relay, ok := g.relays[url]; ok {
		g.mu.Unlock()
		return relay, nil
	}
	if err, ok := g.failed[url]; ok {
		g.mu.Unlock()
		return nil, err
	}
	g.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	relay, err := nostr.RelayConnect(dialCtx, url)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		log.Debug().Str("relay", url).Err(err).Msg("relay connection failed")
		g.failed[url] = err
		return nil, err
	}
	g.relays[url] = relay
	return relay, nil
}

// Close shuts down every live connection.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for url, relay := range g.relays {
		if err := relay.Close(); err != nil {
			log.Debug().Str("relay", url).Err(err).Msg("relay close failed")
		}
		delete(g.relays, url)
	}
}

// FetchOne queries every relay for filter and returns the newest matching
// event, or model.ErrEventNotFound when no relay has one. Relay failures
// are logged and ignored as long as at least one event turns up.
func (g *Gateway) FetchOne(ctx context.Context, relays []string, filter nostr.Filter) (*nostr.Event, error) {
	if filter.Limit == 0 {
		filter.Limit = 1
	}
	events, err := g.fetch(ctx, relays, connectTimeout, nostr.Filters{filter})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, model.ErrEventNotFound
	}

	newest := events[0]
	for _, evt := range events[1:] {
		if evt.CreatedAt > newest.CreatedAt {
			newest = evt
		}
	}
	return newest, nil
}

// FetchAll queries every relay for the filters and returns the union of
// results, deduplicated by event id and sorted newest first.
func (g *Gateway) FetchAll(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error) {
	events, err := g.fetch(ctx, relays, bulkTimeout, nostr.Filters(filters))
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt > events[j].CreatedAt
	})
	return events, nil
}

func (g *Gateway) fetch(ctx context.Context, relays []string, timeout time.Duration, filters nostr.Filters) ([]*nostr.Event, error) {
	if len(relays) == 0 {
		return nil, model.ErrEventNotFound
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		seen   = make(map[string]bool)
		events []*nostr.Event
	)
	grp, grpCtx := errgroup.WithContext(fetchCtx)
	for _, url := range relays {
		grp.Go(func() error {
			relay, err := g.Connect(grpCtx, url)
			if err != nil {
				return nil
			}
			sub, err := relay.Subscribe(grpCtx, filters)
			if err != nil {
				log.Debug().Str("relay", url).Err(err).Msg("subscription failed")
				return nil
			}
			defer sub.Unsub()
			for {
				select {
				case evt, ok := <-sub.Events:
					if !ok || evt == nil {
						return nil
					}
					mu.Lock()
					if !seen[evt.ID] {
						seen[evt.ID] = true
						events = append(events, evt)
					}
					mu.Unlock()
				case <-sub.EndOfStoredEvents:
					return nil
				case <-grpCtx.Done():
					return nil
				}
			}
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}

// Outcome reports where a publish landed and where it did not.
type Outcome struct {
	Success []string
	Failed  map[string]error
}

// AllFailed reports whether no relay accepted the event.
func (o Outcome) AllFailed() bool {
	return len(o.Success) == 0
}

// Publish sends a signed event to every relay and records the result per
// relay. It never fails fast; callers inspect the Outcome.
func (g *Gateway) Publish(ctx context.Context, relays []string, evt *nostr.Event) Outcome {
	outcome := Outcome{Failed: make(map[string]error)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, url := range relays {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.publishOne(ctx, url, evt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Debug().Str("relay", url).Err(err).Msg("publish failed")
				outcome.Failed[url] = err
			} else {
				outcome.Success = append(outcome.Success, url)
			}
		}()
	}
	wg.Wait()
	sort.Strings(outcome.Success)
	return outcome
}

func (g *Gateway) publishOne(ctx context.Context, url string, evt *nostr.Event) error {
	relay, err := g.Connect(ctx, url)
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return relay.Publish(pubCtx, *evt)
}

// Broadcast re-publishes already stored events best effort, so that a
// reply written to the author's relays also carries its thread along.
func (g *Gateway) Broadcast(ctx context.Context, relays []string, events ...*nostr.Event) {
	for _, evt := range events {
		if evt == nil {
			continue
		}
		outcome := g.Publish(ctx, relays, evt)
		log.Debug().
			Str("event", evt.ID).
			Int("accepted", len(outcome.Success)).
			Int("refused", len(outcome.Failed)).
			Msg("broadcast")
	}
}
