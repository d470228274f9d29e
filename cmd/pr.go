package cmd

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/content"
	"github.com/nitcli/nit/internal/editor"
	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/gitutil"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/relayset"
	"github.com/nitcli/nit/internal/status"
)

// PRCommand covers opening, updating and transitioning pull requests.
func PRCommand() *cli.Command {
	return &cli.Command{
		Name:  "pr",
		Usage: "Open and track pull requests",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Open a pull request for the current branch",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Pull request subject; defaults to the first body line",
					},
					&cli.StringFlag{
						Name:    "body",
						Aliases: []string{"m"},
						Usage:   "Pull request body; opens $EDITOR when omitted",
					},
					&cli.StringSliceFlag{
						Name:  "label",
						Usage: "Label to attach, repeatable",
					},
					&cli.StringFlag{
						Name:  "branch",
						Usage: "Branch the pull request ships; defaults to the checked-out branch",
					},
					&cli.StringFlag{
						Name:  "commit",
						Usage: "Tip commit of the branch; defaults to the branch tip",
					},
					&cli.StringSliceFlag{
						Name:  "clone",
						Usage: "Clone `URL` the branch can be fetched from; defaults to the origin remote",
					},
				),
				Action: runPRNew,
			},
			{
				Name:      "update",
				Usage:     "Publish a new tip for an existing pull request",
				ArgsUsage: "<nevent|note>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "commit",
						Usage: "New tip commit; defaults to the checked-out branch tip",
					},
					&cli.StringSliceFlag{
						Name:  "clone",
						Usage: "Clone `URL` the new tip can be fetched from",
					},
				),
				Action: runPRUpdate,
			},
			{
				Name:      "view",
				Usage:     "Show one pull request with its resolved status",
				ArgsUsage: "<nevent|note>",
				Flags:     commonFlags(),
				Action:    runPRView,
			},
			{
				Name:  "list",
				Usage: "List the repositories' pull requests, newest first",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of pull requests to fetch",
						Value: 50,
					},
				),
				Action: runPRList,
			},
			{
				Name:      "apply",
				Usage:     "Mark a pull request applied to the repository",
				ArgsUsage: "<nevent|note>",
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:  "commit",
						Usage: "Commit the pull request was applied as, repeatable",
					},
				),
				Action: runPRApply,
			},
			{
				Name:      "merge",
				Usage:     "Mark a pull request merged into the repository",
				ArgsUsage: "<nevent|note>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "merge-commit",
						Usage:    "Commit that merged the pull request",
						Required: true,
					},
				),
				Action: runPRMerge,
			},
			prTransition("close", "Close a pull request", model.StatusClosed, status.GuardPRClose),
			prTransition("draft", "Mark a pull request as a draft", model.StatusDraft, status.GuardPRDraft),
			prTransition("reopen", "Reopen a closed or drafted pull request", model.StatusOpen, status.GuardPRReopen),
		},
	}
}

func prTransition(name, usage string, to model.Status, guard status.Guard) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<nevent|note>",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c, true)
			if err != nil {
				return err
			}
			defer rt.close()
			ref, err := targetRef(c)
			if err != nil {
				return err
			}
			return rt.runTransition(c.Context, model.FamilyPullRequest, ref, transition{to: to, guard: guard})
		},
	}
}

// branchDetails fills branch, tip commit and clone URLs from flags,
// falling back to the working copy for whatever is missing.
func branchDetails(c *cli.Context) (branch, commit string, clones []string, err error) {
	branch = c.String("branch")
	if branch == "" {
		branch, err = gitutil.HeadBranch(".")
		if err != nil {
			return "", "", nil, err
		}
	}
	commit = c.String("commit")
	if commit == "" {
		commit, err = gitutil.BranchTip(".", branch)
		if err != nil {
			return "", "", nil, err
		}
	}
	clones = c.StringSlice("clone")
	if len(clones) == 0 {
		clones, err = gitutil.CloneURLs(".")
		if err != nil {
			return "", "", nil, fmt.Errorf("no clone URL: %w", err)
		}
	}
	return branch, commit, clones, nil
}

func runPRNew(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	branch, commit, clones, err := branchDetails(c)
	if err != nil {
		return err
	}
	tg, err := rt.fetchTargets(ctx, c.StringSlice("repo"))
	if err != nil {
		return err
	}
	text, err := editor.Content(c.String("body"), "", ".md")
	if err != nil {
		return err
	}
	subject, body := events.SplitSubject(c.String("subject"), text)
	mentions := content.Scan(body)

	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	evt, err := builder.PullRequest(ctx, events.PullRequestInput{
		Coordinates: tg.coords,
		Maintainers: tg.maintainers(),
		Subject:     subject,
		Body:        body,
		Labels:      c.StringSlice("label"),
		Mentions:    mentions,
		Commit:      commit,
		Branch:      branch,
		Clones:      clones,
		EUC:         tg.euc(),
		RelayHint:   tg.relayHint(),
	})
	if err != nil {
		return err
	}

	nevent, err := rt.publish(ctx, evt, publishInput{
		targets:     tg,
		extraRelays: mentions.Relays(),
		notify:      append(tg.maintainers(), mentions.ProfileKeys()...),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Pull request created: %s\n", nevent)
	return nil
}

func runPRUpdate(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	ref, err := targetRef(c)
	if err != nil {
		return err
	}
	ent, err := rt.fetchEntity(ctx, model.FamilyPullRequest, ref)
	if err != nil {
		return err
	}

	commit := c.String("commit")
	if commit == "" {
		branch, err := gitutil.HeadBranch(".")
		if err != nil {
			return err
		}
		commit, err = gitutil.BranchTip(".", branch)
		if err != nil {
			return err
		}
	}

	tg := ent.targets()
	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	evt, err := builder.PRUpdate(ctx, events.PRUpdateInput{
		Original:    ent.event,
		Coordinates: ent.coords,
		Maintainers: tg.maintainers(),
		Commit:      commit,
		Clones:      c.StringSlice("clone"),
		RelayHint:   tg.relayHint(),
	})
	if err != nil {
		return err
	}

	nevent, err := rt.publish(ctx, evt, publishInput{
		targets:     tg,
		extraRelays: ref.Relays,
		notify:      append(tg.maintainers(), ent.event.PubKey),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Pull request update created: %s\n", nevent)
	return nil
}

func runPRView(c *cli.Context) error {
	rt, err := newRuntime(c, false)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	ref, err := targetRef(c)
	if err != nil {
		return err
	}
	ent, err := rt.fetchEntity(ctx, model.FamilyPullRequest, ref)
	if err != nil {
		return err
	}
	res, _, err := rt.resolveStatus(ctx, ent)
	if err != nil {
		return err
	}
	rt.printEntityBody(ctx, ent.event, model.FamilyPullRequest, res.Status, ent.targets().relays())

	update, err := rt.latestPRUpdate(ctx, ent)
	if err != nil {
		return err
	}
	if update != nil {
		fmt.Printf("\nLatest update: %s\n", formatTime(update.CreatedAt))
		if commit := update.Tags.GetFirst([]string{"c"}); commit != nil && len(*commit) >= 2 {
			fmt.Printf("Tip commit: %s\n", (*commit)[1])
		}
	}
	return nil
}

// latestPRUpdate returns the newest update event for the pull request,
// or nil when no update was ever published.
func (rt *runtime) latestPRUpdate(ctx context.Context, ent *entity) (*nostr.Event, error) {
	relays := relayset.Merge(rt.relays, ent.targets().relays())
	evts, err := rt.gw.FetchAll(ctx, relays, nostr.Filter{
		Kinds: []int{model.KindPRUpdate},
		Tags:  nostr.TagMap{"E": []string{ent.event.ID}},
	})
	if err != nil {
		return nil, err
	}
	var latest *nostr.Event
	for _, evt := range evts {
		if latest == nil || evt.CreatedAt > latest.CreatedAt {
			latest = evt
		}
	}
	return latest, nil
}

func runPRList(c *cli.Context) error {
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
	return rt.listEntities(ctx, model.FamilyPullRequest, tg, c.Int("limit"))
}

func runPRApply(c *cli.Context) error {
	return runPRTransition(c, transition{
		to:             model.StatusMergedApplied,
		guard:          status.GuardPRApply,
		appliedCommits: c.StringSlice("commit"),
	})
}

func runPRMerge(c *cli.Context) error {
	return runPRTransition(c, transition{
		to:          model.StatusMergedApplied,
		guard:       status.GuardPRMerge,
		mergeCommit: c.String("merge-commit"),
	})
}

func runPRTransition(c *cli.Context, tr transition) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ref, err := targetRef(c)
	if err != nil {
		return err
	}
	return rt.runTransition(c.Context, model.FamilyPullRequest, ref, tr)
}
