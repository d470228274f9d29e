package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
)

// nostrAddressFile names the per-repository address file dropped into the
// working tree by "nit repo announce --address-file".
const nostrAddressFile = "nostr-address"

const nostrAddressHeader = `# The contents of this file are used by git collaboration clients
# to know the addresses of this repository. Lines starting with # are
# ignored.
`

// resolveCoordinates expands every repo argument into coordinates: naddr
// and NIP-05 forms parse directly, anything else is looked up as a set
// name. With no arguments at all the nostr-address file in the current
// directory supplies the addresses.
func (rt *runtime) resolveCoordinates(ctx context.Context, values []string) ([]model.Coordinate, error) {
	if len(values) == 0 {
		return readNostrAddressFile(ctx)
	}
	var coords []model.Coordinate
	for _, value := range values {
		coord, ok, err := model.ParseCoordinate(ctx, value)
		if err != nil {
			return nil, err
		}
		if ok {
			coords = append(coords, coord)
			continue
		}
		set, err := rt.cfg.FindSet(value)
		if err != nil {
			return nil, err
		}
		for _, addr := range set.Addresses {
			coord, ok, err := model.ParseCoordinate(ctx, addr)
			if err != nil {
				return nil, fmt.Errorf("set %q: %w", value, err)
			}
			if !ok {
				return nil, fmt.Errorf("set %q holds a non-address entry %q", value, addr)
			}
			coord.Relays = append(coord.Relays, set.Relays...)
			coords = append(coords, coord)
		}
	}
	return model.DedupCoordinates(coords), nil
}

func readNostrAddressFile(ctx context.Context) ([]model.Coordinate, error) {
	data, err := os.ReadFile(nostrAddressFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrEmptyCoordinates
		}
		return nil, fmt.Errorf("reading %s: %w", nostrAddressFile, err)
	}
	var coords []model.Coordinate
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coord, ok, err := model.ParseCoordinate(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", nostrAddressFile, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s holds a non-address line %q", nostrAddressFile, line)
		}
		coords = append(coords, coord)
	}
	if len(coords) == 0 {
		return nil, model.ErrEmptyCoordinates
	}
	return model.DedupCoordinates(coords), nil
}

// appendNostrAddress adds a naddr line to the nostr-address file, writing
// the explanatory header first when the file does not exist yet.
func appendNostrAddress(naddr string) error {
	existing, err := os.ReadFile(nostrAddressFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", nostrAddressFile, err)
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == naddr {
			return nil
		}
	}
	var out strings.Builder
	if len(existing) == 0 {
		out.WriteString(nostrAddressHeader)
	} else {
		out.Write(existing)
		if !strings.HasSuffix(string(existing), "\n") {
			out.WriteByte('\n')
		}
	}
	out.WriteString(naddr)
	out.WriteByte('\n')
	return os.WriteFile(nostrAddressFile, []byte(out.String()), 0o644)
}

// targets bundles the resolved coordinates with their fetched
// announcements. Most write paths need both.
type targets struct {
	coords []model.Coordinate
	events []*nostr.Event
	anns   []model.Announcement
}

// fetchTargets resolves repo arguments and retrieves the announcement of
// every coordinate. Commands that must address a repository pass an empty
// values slice through here and get ErrEmptyCoordinates when nothing
// resolves.
func (rt *runtime) fetchTargets(ctx context.Context, values []string) (*targets, error) {
	coords, err := rt.resolveCoordinates(ctx, values)
	if err != nil {
		return nil, err
	}
	evts, err := rt.gw.FetchAnnouncements(ctx, coords, rt.relays)
	if err != nil {
		return nil, err
	}
	anns := make([]model.Announcement, len(evts))
	for i, evt := range evts {
		anns[i] = model.DecodeAnnouncement(evt, coords[i].Identifier)
	}
	return &targets{coords: coords, events: evts, anns: anns}, nil
}

// relays returns the coordinate hints plus the announcement relays.
func (t *targets) relays() []string {
	return relayset.Merge(model.CoordinateRelays(t.coords), model.AnnouncementRelays(t.anns))
}

// maintainers returns the union of owners and announced maintainers,
// owners first.
func (t *targets) maintainers() []string {
	return dedupStrings(append(model.CoordinateOwners(t.coords), model.AnnouncementMaintainers(t.anns)...))
}

// relayHint picks the hint embedded into event tags: the first repository
// relay, if any.
func (t *targets) relayHint() string {
	if relays := t.relays(); len(relays) > 0 {
		return relays[0]
	}
	return ""
}

func (t *targets) euc() string {
	return model.FirstEUC(t.anns)
}

func dedupStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
