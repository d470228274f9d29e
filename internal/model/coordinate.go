package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip05"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// Coordinate addresses a repository announcement: the owner public key plus
// the repository identifier. Relay hints are advisory and are not part of
// the coordinate's identity.
type Coordinate struct {
	PubKey     string
	Identifier string
	Relays     []string
}

// Identity returns the canonical addressing string used in "a" tags and for
// equality checks. Relay hints are deliberately excluded.
func (c Coordinate) Identity() string {
	return fmt.Sprintf("%d:%s:%s", KindRepoAnnouncement, c.PubKey, c.Identifier)
}

// Naddr encodes the coordinate as a bech32 naddr carrying at most three
// unique relay hints.
func (c Coordinate) Naddr(relays []string) (string, error) {
	hints := truncateRelays(relays, 3)
	naddr, err := nip19.EncodeEntity(c.PubKey, KindRepoAnnouncement, c.Identifier, hints)
	if err != nil {
		return "", fmt.Errorf("encoding naddr: %w", err)
	}
	return naddr, nil
}

// ParseCoordinate parses a repository address in naddr form
// ("naddr1...", optionally "nostr:"-prefixed) or NIP-05 form
// ("4rs.nl/n34" or "_@4rs.nl/n34"). Anything else is not a coordinate;
// callers treat it as a set name.
func ParseCoordinate(ctx context.Context, addr string) (Coordinate, bool, error) {
	addr = strings.TrimPrefix(strings.TrimSpace(addr), "nostr:")

	if strings.HasPrefix(addr, "naddr1") {
		c, err := parseNaddr(addr)
		return c, true, err
	}
	if strings.Contains(addr, "/") {
		c, err := parseNip05Repo(ctx, addr)
		return c, true, err
	}
	return Coordinate{}, false, nil
}

func parseNaddr(naddr string) (Coordinate, error) {
	prefix, value, err := nip19.Decode(naddr)
	if err != nil {
		return Coordinate{}, &DecodeError{What: "repository address", Raw: naddr}
	}
	pointer, ok := value.(nostr.EntityPointer)
	if !ok || prefix != "naddr" {
		return Coordinate{}, &DecodeError{What: "repository address", Raw: naddr}
	}
	if pointer.Kind != KindRepoAnnouncement {
		return Coordinate{}, &DecodeError{What: "repository address kind", Raw: naddr}
	}
	return Coordinate{
		PubKey:     pointer.PublicKey,
		Identifier: pointer.Identifier,
		Relays:     pointer.Relays,
	}, nil
}

func parseNip05Repo(ctx context.Context, addr string) (Coordinate, error) {
	name, repoID, _ := strings.Cut(addr, "/")
	if !strings.Contains(name, "@") {
		name = "_@" + name
	}
	profile, err := nip05.QueryIdentifier(ctx, name)
	if err != nil {
		return Coordinate{}, fmt.Errorf("resolving %q: %w", name, err)
	}
	return Coordinate{
		PubKey:     profile.PublicKey,
		Identifier: repoID,
		Relays:     profile.Relays,
	}, nil
}

// DedupCoordinates removes duplicates by identity, keeping the first
// occurrence. Relay hints of dropped duplicates are folded into the kept
// coordinate so no discovery hint is lost.
func DedupCoordinates(coords []Coordinate) []Coordinate {
	out := make([]Coordinate, 0, len(coords))
	index := make(map[string]int, len(coords))
	for _, c := range coords {
		id := c.Identity()
		if at, seen := index[id]; seen {
			out[at].Relays = append(out[at].Relays, c.Relays...)
			continue
		}
		index[id] = len(out)
		out = append(out, c)
	}
	return out
}

// CoordinateRelays collects every relay hint embedded in the coordinates.
func CoordinateRelays(coords []Coordinate) []string {
	var relays []string
	for _, c := range coords {
		relays = append(relays, c.Relays...)
	}
	return relays
}

// CoordinateOwners collects the owner public keys of the coordinates.
func CoordinateOwners(coords []Coordinate) []string {
	owners := make([]string, 0, len(coords))
	for _, c := range coords {
		owners = append(owners, c.PubKey)
	}
	return owners
}

func truncateRelays(relays []string, n int) []string {
	seen := make(map[string]struct{}, len(relays))
	out := make([]string, 0, n)
	for _, r := range relays {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}
