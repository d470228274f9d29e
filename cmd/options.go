package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/config"
	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/gateway"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
	"github.com/nitcli/nit/internal/signer"
)

// commonFlags are shared by every network-touching command.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "relay",
			Aliases: []string{"r"},
			Usage:   "Relay `URL` or set name to read from and write to, repeatable",
		},
		&cli.IntFlag{
			Name:  "pow",
			Usage: "Proof-of-work difficulty for outgoing events",
		},
		&cli.StringFlag{
			Name:    "secret-key",
			Aliases: []string{"s"},
			Usage:   "Secret key in nsec or hex form",
		},
		&cli.StringFlag{
			Name:  "bunker",
			Usage: "NIP-46 bunker `URL` to sign with",
		},
	}
}

// repoFlag selects target repositories for commands that address one or
// more of them.
func repoFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "repo",
		Usage: "Repository `ADDRESS`: naddr, NIP-05 (user@domain/repo), or set name. Defaults to the nostr-address file",
	}
}

// relayGateway is the slice of the relay gateway the commands drive.
// gateway.Gateway implements it; tests substitute their own.
type relayGateway interface {
	FetchEvent(ctx context.Context, relays []string, id string) (*nostr.Event, error)
	FetchAll(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error)
	FetchAnnouncements(ctx context.Context, coords []model.Coordinate, extra []string) ([]*nostr.Event, error)
	FindRoot(ctx context.Context, relays []string, evt *nostr.Event) (*nostr.Event, error)
	ProfileName(ctx context.Context, relays []string, pubkey string) string
	RelayList(ctx context.Context, relays []string, pubkey string, role relayset.Role) []string
	RelayListsOf(ctx context.Context, relays []string, pubkeys []string, role relayset.Role) []string
	Publish(ctx context.Context, relays []string, evt *nostr.Event) gateway.Outcome
	Broadcast(ctx context.Context, relays []string, events ...*nostr.Event)
	Close()
}

// runtime bundles everything a command execution needs.
type runtime struct {
	cfg     *config.Config
	cfgPath string
	gw      relayGateway
	// relays are the explicit CLI relays, or the configured fallbacks.
	relays []string
	pow    int
	signer signer.Signer
	// names caches profile-name lookups for the run.
	names map[string]string
}

func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("locating config file: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newRuntime assembles the gateway, relay list, proof-of-work setting
// and signer for one command run. Commands that only read pass
// needSigner=false and work without any key material.
func newRuntime(c *cli.Context, needSigner bool) (*runtime, error) {
	cfg, cfgPath, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	relays, err := resolveRelays(cfg, c.StringSlice("relay"))
	if err != nil {
		return nil, err
	}
	if len(relays) == 0 {
		relays = relayset.Merge(cfg.FallbackRelays)
		if len(relays) > 0 {
			log.Debug().Strs("relays", relays).Msg("using fallback relays")
		}
	}

	pow := cfg.Pow
	if c.IsSet("pow") {
		pow = c.Int("pow")
	}

	rt := &runtime{
		cfg:     cfg,
		cfgPath: cfgPath,
		gw:      gateway.New(),
		relays:  relays,
		pow:     pow,
	}

	rt.signer, err = resolveSigner(c.Context, c, cfg)
	if err != nil && (needSigner || !errors.Is(err, signer.ErrNoSigner)) {
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) close() {
	rt.gw.Close()
}

// resolveSigner picks the signer in flag, keyring, bunker order.
func resolveSigner(ctx context.Context, c *cli.Context, cfg *config.Config) (signer.Signer, error) {
	if secret := c.String("secret-key"); secret != "" {
		return signer.NewLocal(secret)
	}
	if cfg.KeyringSecretKey {
		secret, err := signer.LoadSecret()
		if err != nil {
			return nil, err
		}
		return signer.NewLocal(secret)
	}
	bunkerURL := c.String("bunker")
	if bunkerURL == "" {
		bunkerURL = cfg.BunkerURL
	}
	if bunkerURL != "" {
		return signer.ConnectBunker(ctx, bunkerURL)
	}
	return nil, signer.ErrNoSigner
}

// author returns the signing public key.
func (rt *runtime) author(ctx context.Context) (string, error) {
	if rt.signer == nil {
		return "", signer.ErrNoSigner
	}
	return rt.signer.PublicKey(ctx)
}

// builder returns an event builder for the signing key.
func (rt *runtime) builder(ctx context.Context) (*events.Builder, error) {
	author, err := rt.author(ctx)
	if err != nil {
		return nil, err
	}
	return events.NewBuilder(author, rt.pow), nil
}

// resolveRelays expands every value into relay URLs: a URL stands for
// itself, anything else must be a set name whose relays are taken.
func resolveRelays(cfg *config.Config, values []string) ([]string, error) {
	var groups [][]string
	for _, value := range values {
		if looksLikeRelayURL(value) {
			groups = append(groups, []string{value})
			continue
		}
		set, err := cfg.FindSet(value)
		if err != nil {
			return nil, err
		}
		if len(set.Relays) == 0 {
			return nil, fmt.Errorf("set %q has no relays", value)
		}
		groups = append(groups, set.Relays)
	}
	return relayset.Merge(groups...), nil
}

// looksLikeRelayURL requires an explicit websocket scheme; a bare word
// is a set name, never a relay.
func looksLikeRelayURL(value string) bool {
	return strings.HasPrefix(value, "ws://") || strings.HasPrefix(value, "wss://")
}

// publishInput is everything publish needs beyond the event itself.
type publishInput struct {
	targets *targets
	// extraRelays carries the lowest-precedence sources, content
	// mentions included.
	extraRelays []string
	// notify lists pubkeys whose read relays should receive the event.
	notify []string
}

// publish signs the event, fans it out across the write relay union,
// and returns an nevent receipt pointing at the relays that accepted
// it. Partial failure is fine; total failure is not.
func (rt *runtime) publish(ctx context.Context, evt *nostr.Event, in publishInput) (string, error) {
	author, err := rt.author(ctx)
	if err != nil {
		return "", err
	}

	sources := [][]string{rt.relays}
	if in.targets != nil {
		sources = append(sources, in.targets.relays())
	}
	ownList := rt.gw.RelayList(ctx, rt.relays, author, relayset.RoleWrite)
	sources = append(sources, ownList)
	if len(in.notify) > 0 {
		sources = append(sources, rt.gw.RelayListsOf(ctx, rt.relays, in.notify, relayset.RoleRead))
	}
	sources = append(sources, in.extraRelays)

	writeRelays := relayset.Merge(sources...)
	if len(writeRelays) == 0 {
		return "", errors.New("no relays to publish to: pass --relay or configure fallback relays")
	}

	if err := rt.signer.Sign(ctx, evt); err != nil {
		return "", fmt.Errorf("signing event: %w", err)
	}

	outcome := rt.gw.Publish(ctx, writeRelays, evt)
	for relay, err := range outcome.Failed {
		log.Debug().Str("relay", relay).Err(err).Msg("relay refused the event")
	}
	if outcome.AllFailed() {
		return "", errors.New("no relay accepted the event")
	}
	return model.Nevent(evt.ID, outcome.Success)
}
