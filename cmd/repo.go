package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/gitutil"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
)

// RepoCommand covers announcing repositories and inspecting them.
func RepoCommand() *cli.Command {
	return &cli.Command{
		Name:  "repo",
		Usage: "Announce and inspect repositories",
		Subcommands: []*cli.Command{
			{
				Name:      "announce",
				Usage:     "Announce a repository so others can address it",
				ArgsUsage: "<identifier>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Human-readable repository name",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "One-line repository description",
					},
					&cli.StringSliceFlag{
						Name:  "web",
						Usage: "Web page `URL`, repeatable",
					},
					&cli.StringSliceFlag{
						Name:  "clone",
						Usage: "Clone `URL`; defaults to the origin remote",
					},
					&cli.StringSliceFlag{
						Name:  "maintainer",
						Usage: "Maintainer public key in npub or hex form, repeatable",
					},
					&cli.StringSliceFlag{
						Name:  "label",
						Usage: "Label to attach, repeatable",
					},
					&cli.StringFlag{
						Name:  "euc",
						Usage: "Earliest unique commit; defaults to the root commit of the working copy",
					},
					&cli.BoolFlag{
						Name:  "force-id",
						Usage: "Skip the kebab-case identifier check",
					},
					&cli.BoolFlag{
						Name:  "address-file",
						Usage: "Record the repository address in the nostr-address file",
					},
				),
				Action: runRepoAnnounce,
			},
			{
				Name:   "view",
				Usage:  "Show what the repositories announce about themselves",
				Flags:  append(commonFlags(), repoFlag()),
				Action: runRepoView,
			},
			{
				Name:  "state",
				Usage: "Announce the current branches and tags of the working copy",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.StringFlag{
						Name:  "head",
						Usage: "Primary branch name; defaults to the checked-out branch",
					},
				),
				Action: runRepoState,
			},
		},
	}
}

func runRepoAnnounce(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one identifier argument, got %d", c.NArg())
	}
	identifier := c.Args().First()

	clones := c.StringSlice("clone")
	if len(clones) == 0 {
		clones, err = gitutil.CloneURLs(".")
		if err != nil {
			log.Debug().Err(err).Msg("no clone URL from the working copy")
		}
	}
	euc := c.String("euc")
	if euc == "" {
		euc, err = gitutil.EarliestUniqueCommit(".")
		if err != nil {
			log.Debug().Err(err).Msg("no earliest unique commit from the working copy")
		}
	}

	author, err := rt.author(ctx)
	if err != nil {
		return err
	}
	extraMaintainers, err := decodePubkeys(c.StringSlice("maintainer"))
	if err != nil {
		return err
	}
	maintainers := dedupStrings(append([]string{author}, extraMaintainers...))

	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	in := events.AnnouncementInput{
		Identifier:      identifier,
		Name:            c.String("name"),
		Description:     c.String("description"),
		Web:             c.StringSlice("web"),
		Clone:           clones,
		Relays:          rt.relays,
		Maintainers:     maintainers,
		Labels:          c.StringSlice("label"),
		EUC:             euc,
		ForceIdentifier: c.Bool("force-id"),
	}
	evt, err := builder.Announcement(ctx, in)
	if err != nil {
		return err
	}

	nevent, err := rt.publish(ctx, evt, publishInput{notify: maintainers})
	if err != nil {
		return err
	}

	coord := model.Coordinate{PubKey: author, Identifier: identifier}
	naddr, err := coord.Naddr(rt.relays)
	if err != nil {
		return err
	}
	if c.Bool("address-file") {
		if err := appendNostrAddress(naddr); err != nil {
			return err
		}
	}
	fmt.Printf("Repository announced: %s\n", naddr)
	log.Debug().Str("event", nevent).Msg("announcement receipt")
	return nil
}

func runRepoView(c *cli.Context) error {
	rt, err := newRuntime(c, false)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	tg, err := rt.fetchTargets(ctx, c.StringSlice("repo"))
	if err != nil {
		return err
	}
	for i, ann := range tg.anns {
		if i > 0 {
			fmt.Println("----------")
		}
		printAnnouncement(ann, tg.coords[i], tg.events[i].PubKey)
	}
	return nil
}

func printAnnouncement(ann model.Announcement, coord model.Coordinate, owner string) {
	fmt.Printf("ID: %s\n", ann.Identifier)
	fmt.Printf("Name: %s\n", orNA(ann.Name))
	fmt.Printf("Description: %s\n", orNA(ann.Description))
	fmt.Println("Webpages:")
	printList(ann.Web)
	fmt.Println("Clone urls:")
	printList(ann.Clone)
	fmt.Println("Relays:")
	printList(ann.Relays)
	fmt.Printf("Earliest unique commit: %s\n", orNA(ann.EarliestUniqueCommit))
	fmt.Println("Maintainers:")
	maintainers := dedupStrings(append([]string{owner}, ann.Maintainers...))
	npubs := make([]string, len(maintainers))
	for i, pk := range maintainers {
		npubs[i] = npubOf(pk)
	}
	printList(npubs)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func runRepoState(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	coords, err := rt.resolveCoordinates(ctx, c.StringSlice("repo"))
	if err != nil {
		return err
	}

	head := c.String("head")
	if head == "" {
		head, err = gitutil.HeadBranch(".")
		if err != nil {
			return err
		}
	}
	branches, gitTags, err := gitutil.LocalRefs(".")
	if err != nil {
		return err
	}

	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	author, err := rt.author(ctx)
	if err != nil {
		return err
	}

	for _, coord := range coords {
		if coord.PubKey != author {
			return fmt.Errorf("repository %s belongs to %s, only the owner announces its state",
				coord.Identifier, npubOf(coord.PubKey))
		}
		in := events.StateInput{Identifier: coord.Identifier, Head: head}
		for _, branch := range branches {
			in.Branches = append(in.Branches, events.RefState{Name: branch.Name, Commit: branch.Commit})
		}
		for _, tag := range gitTags {
			in.Tags = append(in.Tags, events.RefState{Name: tag.Name, Commit: tag.Commit})
		}
		evt, err := builder.State(ctx, in)
		if err != nil {
			return err
		}
		nevent, err := rt.publish(ctx, evt, publishInput{
			extraRelays: relayset.Merge(coord.Relays),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Repository state announced: %s\n", nevent)
	}
	return nil
}
