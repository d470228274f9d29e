package gateway

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog/log"

	"github.com/nitcli/nit/internal/model"
)

// maxRootDepth caps reply-chain walks. Real threads are shallow; a chain
// this deep is a cycle or garbage.
const maxRootDepth = 32

func isThreadRoot(kind int) bool {
	switch kind {
	case model.KindIssue, model.KindPatch, model.KindPullRequest, model.KindPRUpdate:
		return true
	}
	return false
}

// FindRoot walks the reply chain of evt up to the issue, patch, or pull
// request it hangs off. It returns nil when evt itself is the root, and
// model.ErrCannotReply when the chain exhausts without reaching one.
func (g *Gateway) FindRoot(ctx context.Context, relays []string, evt *nostr.Event) (*nostr.Event, error) {
	if isThreadRoot(evt.Kind) {
		return nil, nil
	}
	if evt.Kind != model.KindComment {
		return nil, model.ErrCannotReply
	}

	current := evt
	for depth := 0; depth < maxRootDepth; depth++ {
		ref, ok := model.ParentRef(current)
		if !ok {
			return nil, model.ErrCannotReply
		}
		parent, err := g.FetchEvent(ctx, append(relays, ref.Relays...), ref.ID)
		if err != nil {
			return nil, err
		}
		if isThreadRoot(parent.Kind) {
			return parent, nil
		}
		log.Debug().Str("event", parent.ID).Int("kind", parent.Kind).Msg("walking reply chain")
		current = parent
	}
	return nil, model.ErrCannotReply
}
