// Package signer abstracts over the ways a secret key can sign events:
// a key given directly, one stored in the system keyring, or a remote
// NIP-46 bunker.
package signer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/nbd-wtf/go-nostr/nip46"
)

// ErrNoSigner is returned when a command needs to sign but no secret
// key, keyring entry, or bunker was configured.
var ErrNoSigner = errors.New("no signer configured: pass --secret-key, store one with 'nit config keyring', or configure a bunker")

// Signer signs outgoing events.
type Signer interface {
	PublicKey(ctx context.Context) (string, error)
	Sign(ctx context.Context, evt *nostr.Event) error
}

// Local signs with a secret key held in memory.
type Local struct {
	secret string
}

// NewLocal accepts a secret key in nsec or hex form.
func NewLocal(secret string) (*Local, error) {
	secret = strings.TrimSpace(secret)
	if strings.HasPrefix(secret, "nsec1") {
		prefix, data, err := nip19.Decode(secret)
		if err != nil || prefix != "nsec" {
			return nil, fmt.Errorf("invalid nsec secret key")
		}
		secret = data.(string)
	}
	if !nostr.IsValid32ByteHex(secret) {
		return nil, fmt.Errorf("invalid secret key, must be nsec or 64 hex characters")
	}
	return &Local{secret: secret}, nil
}

func (l *Local) PublicKey(ctx context.Context) (string, error) {
	return nostr.GetPublicKey(l.secret)
}

func (l *Local) Sign(ctx context.Context, evt *nostr.Event) error {
	return evt.Sign(l.secret)
}

// Bunker signs through a remote NIP-46 signer.
type Bunker struct {
	client *nip46.BunkerClient
}

// ConnectBunker dials the bunker URL with a throwaway client key.
func ConnectBunker(ctx context.Context, bunkerURL string) (*Bunker, error) {
	clientKey := nostr.GeneratePrivateKey()
	client, err := nip46.ConnectBunker(ctx, clientKey, bunkerURL, nil, func(authURL string) {
		fmt.Fprintf(os.Stderr, "Authorize this client with your bunker: %s\n", authURL)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to bunker: %w", err)
	}
	return &Bunker{client: client}, nil
}

func (b *Bunker) PublicKey(ctx context.Context) (string, error) {
	return b.client.GetPublicKey(ctx)
}

func (b *Bunker) Sign(ctx context.Context, evt *nostr.Event) error {
	return b.client.SignEvent(ctx, evt)
}
