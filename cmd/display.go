package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"golang.org/x/sync/errgroup"

	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
	"github.com/nitcli/nit/internal/status"
)

// npubOf renders a public key as npub, falling back to the hex form when
// encoding fails.
func npubOf(pubkey string) string {
	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil {
		return pubkey
	}
	return npub
}

// truncatedNpub shortens the npub for display contexts where the full
// bech32 string would drown the line.
func truncatedNpub(pubkey string) string {
	npub := npubOf(pubkey)
	if len(npub) <= 18 {
		return npub
	}
	return npub[:10] + "..." + npub[len(npub)-5:]
}

// displayName resolves a pubkey to its profile name, falling back to a
// truncated npub. Lookups are cached per run.
func (rt *runtime) displayName(ctx context.Context, relays []string, pubkey string) string {
	if rt.names == nil {
		rt.names = make(map[string]string)
	}
	if name, ok := rt.names[pubkey]; ok {
		return name
	}
	name := rt.gw.ProfileName(ctx, relayset.Merge(rt.relays, relays), pubkey)
	if name == "" {
		name = truncatedNpub(pubkey)
	}
	rt.names[pubkey] = name
	return name
}

// decodePubkeys accepts public keys in npub or hex form and returns
// them all as hex.
func decodePubkeys(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimPrefix(strings.TrimSpace(value), "nostr:")
		if strings.HasPrefix(value, "npub1") {
			prefix, data, err := nip19.Decode(value)
			if err != nil || prefix != "npub" {
				return nil, &model.DecodeError{What: "public key", Raw: value}
			}
			out = append(out, data.(string))
			continue
		}
		if !nostr.IsValid32ByteHex(value) {
			return nil, &model.DecodeError{What: "public key", Raw: value}
		}
		out = append(out, value)
	}
	return out, nil
}

func neventOf(id string, relays []string) string {
	nevent, err := model.Nevent(id, relays)
	if err != nil {
		return id
	}
	return nevent
}

func formatTime(ts nostr.Timestamp) string {
	return ts.Time().UTC().Format(time.RFC3339)
}

// printEntity renders one issue, patch, or pull request block.
func (rt *runtime) printEntity(ctx context.Context, evt *nostr.Event, family model.Family, st model.Status, relays []string) {
	fmt.Printf("Subject: %s\n", model.Subject(evt))
	fmt.Printf("ID: %s\n", neventOf(evt.ID, relays))
	fmt.Printf("Author: %s\n", rt.displayName(ctx, relays, evt.PubKey))
	fmt.Printf("Created at: %s\n", formatTime(evt.CreatedAt))
	fmt.Printf("Status: %s\n", st.Display(family))
	if labels := model.Labels(evt); labels != "" {
		fmt.Printf("Labels: %s\n", labels)
	}
}

// printEntityBody prints the entity block followed by its content.
func (rt *runtime) printEntityBody(ctx context.Context, evt *nostr.Event, family model.Family, st model.Status, relays []string) {
	rt.printEntity(ctx, evt, family, st, relays)
	if body := strings.TrimSpace(evt.Content); body != "" {
		fmt.Printf("\n%s\n", body)
	}
}

func printList(values []string) {
	if len(values) == 0 {
		fmt.Println(" Nothing")
		return
	}
	for _, v := range values {
		fmt.Printf(" - %s\n", v)
	}
}

// listEntities fetches the repositories' entities of the given family
// and prints them newest first, each with its resolved status.
func (rt *runtime) listEntities(ctx context.Context, family model.Family, tg *targets, limit int) error {
	identities := make([]string, len(tg.coords))
	for i, coord := range tg.coords {
		identities[i] = coord.Identity()
	}
	relays := relayset.Merge(rt.relays, tg.relays())
	evts, err := rt.gw.FetchAll(ctx, relays, nostr.Filter{
		Kinds: []int{entityKind(family)},
		Tags:  nostr.TagMap{"a": identities},
		Limit: limit,
	})
	if err != nil {
		return err
	}

	entries, err := rt.resolveEntities(ctx, family, tg, relays, evts)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			fmt.Println()
		}
		rt.printEntity(ctx, entry.event, family, entry.status, relays)
	}
	return nil
}

// listedEntity pairs a fetched entity with its resolved status.
type listedEntity struct {
	event  *nostr.Event
	status model.Status
}

// resolveEntities resolves the status of every listable entity in
// parallel, keeping the fetch order. Patches that are neither roots nor
// revisions are plain series members and are skipped, as are revisions
// whose root reference does not decode.
func (rt *runtime) resolveEntities(ctx context.Context, family model.Family, tg *targets, relays []string, evts []*nostr.Event) ([]listedEntity, error) {
	type candidate struct {
		evt        *nostr.Event
		rootID     string
		revisionID string
	}
	var candidates []candidate
	for _, evt := range evts {
		if family == model.FamilyPatch && !model.IsRootPatch(evt) && !model.IsRevisionPatch(evt) {
			continue
		}
		cand := candidate{evt: evt, rootID: evt.ID}
		if family == model.FamilyPatch && model.IsRevisionPatch(evt) {
			root, err := model.RootFromRevision(evt)
			if err != nil {
				continue
			}
			cand.rootID, cand.revisionID = root, evt.ID
		}
		candidates = append(candidates, cand)
	}

	resolver := status.NewResolver(rt.gw, relays)
	entries := make([]listedEntity, len(candidates))
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, cand := range candidates {
		grp.Go(func() error {
			signers := status.Signers(tg.coords, tg.events, cand.evt.PubKey)
			res, err := resolver.Resolve(grpCtx, family, cand.rootID, cand.revisionID, signers)
			if err != nil {
				return err
			}
			entries[i] = listedEntity{event: cand.evt, status: res.Status}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
