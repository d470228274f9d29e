package cmd

import (
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/content"
	"github.com/nitcli/nit/internal/editor"
	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
)

// ReplyCommand posts a threaded comment under an issue, patch, or pull
// request, anywhere in its reply chain.
func ReplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "reply",
		Usage: "Comment on an issue, patch, or pull request thread",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "to",
				Usage:    "`EVENT` to reply to, in nevent or note form",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "comment",
				Aliases: []string{"m"},
				Usage:   "Comment text; opens $EDITOR when omitted",
			},
			&cli.BoolFlag{
				Name:  "quote-to",
				Usage: "Seed the editor with the replied-to content, quoted and attributed",
			},
		),
		Action: runReply,
	}
}

func runReply(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	ref, err := model.ParseEventRef(c.String("to"))
	if err != nil {
		return err
	}
	relays := relayset.Merge(rt.relays, ref.Relays)
	parent, err := rt.gw.FetchEvent(ctx, relays, ref.ID)
	if err != nil {
		return err
	}
	root, err := rt.gw.FindRoot(ctx, relays, parent)
	if err != nil {
		return err
	}

	var quoted string
	if c.Bool("quote-to") {
		author := rt.displayName(ctx, ref.Relays, parent.PubKey)
		quoted = quoteContent(parent, author)
	}
	text, err := editor.Content(c.String("comment"), quoted, ".md")
	if err != nil {
		return err
	}
	mentions := content.Scan(text)

	// The repository context lives on the thread root's a tags.
	scope := root
	if scope == nil {
		scope = parent
	}
	coords, err := model.RootCoordinates(scope)
	if err != nil {
		return err
	}
	tg := &targets{coords: coords}
	tg.events, err = rt.gw.FetchAnnouncements(ctx, coords, relays)
	if err != nil {
		return err
	}
	for i, ann := range tg.events {
		tg.anns = append(tg.anns, model.DecodeAnnouncement(ann, coords[i].Identifier))
	}

	var repoOwner string
	if len(coords) > 0 {
		repoOwner = coords[0].PubKey
	}

	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	evt, err := builder.Comment(ctx, events.CommentInput{
		Content:   text,
		Parent:    parent,
		Root:      root,
		RelayHint: tg.relayHint(),
		RepoOwner: repoOwner,
		Mentions:  mentions,
	})
	if err != nil {
		return err
	}

	notify := append([]string{parent.PubKey}, mentions.ProfileKeys()...)
	if root != nil {
		notify = append(notify, root.PubKey)
	}
	nevent, err := rt.publish(ctx, evt, publishInput{
		targets:     tg,
		extraRelays: relayset.Merge(ref.Relays, mentions.Relays()),
		notify:      dedupStrings(notify),
	})
	if err != nil {
		return err
	}

	// Rehome the thread so the reply is readable wherever it lands: the
	// parent and root travel to the commenter's audience too.
	authorRelays := rt.gw.RelayListsOf(ctx, rt.relays, dedupStrings(notify), relayset.RoleRead)
	broadcast := []*nostr.Event{parent}
	if root != nil {
		broadcast = append(broadcast, root)
	}
	rt.gw.Broadcast(ctx, authorRelays, broadcast...)

	fmt.Printf("Comment created: %s\n", nevent)
	return nil
}

// quoteContent seeds the editor with the quoted parent, attributed the
// way mail clients do it.
func quoteContent(parent *nostr.Event, author string) string {
	text := strings.TrimSpace(parent.Content)
	if text == "" {
		return ""
	}
	when := parent.CreatedAt.Time().UTC()
	var quoted strings.Builder
	fmt.Fprintf(&quoted, "On %s at %s UTC, %s wrote:\n",
		when.Format("2006-01-02"), when.Format("15:04"), author)
	for _, line := range strings.Split(text, "\n") {
		quoted.WriteString("> ")
		quoted.WriteString(line)
		quoted.WriteByte('\n')
	}
	quoted.WriteByte('\n')
	return quoted.String()
}
