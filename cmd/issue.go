package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/content"
	"github.com/nitcli/nit/internal/editor"
	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/status"
)

// IssueCommand covers creating, browsing and transitioning issues.
func IssueCommand() *cli.Command {
	return &cli.Command{
		Name:  "issue",
		Usage: "Create and track repository issues",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Open a new issue on the target repositories",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Issue subject; defaults to the first body line",
					},
					&cli.StringFlag{
						Name:    "body",
						Aliases: []string{"m"},
						Usage:   "Issue body; opens $EDITOR when omitted",
					},
					&cli.StringSliceFlag{
						Name:  "label",
						Usage: "Label to attach, repeatable",
					},
				),
				Action: runIssueNew,
			},
			{
				Name:      "view",
				Usage:     "Show one issue with its resolved status",
				ArgsUsage: "<nevent|note>",
				Flags:     commonFlags(),
				Action:    runIssueView,
			},
			{
				Name:  "list",
				Usage: "List the repositories' issues, newest first",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of issues to fetch",
						Value: 50,
					},
				),
				Action: runIssueList,
			},
			issueTransition("close", "Close an issue", model.StatusClosed, status.GuardIssueClose),
			issueTransition("reopen", "Reopen a closed or resolved issue", model.StatusOpen, status.GuardIssueReopen),
			issueTransition("resolve", "Mark an issue resolved", model.StatusMergedApplied, status.GuardIssueResolve),
		},
	}
}

func issueTransition(name, usage string, to model.Status, guard status.Guard) *cli.Command {
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
			return rt.runTransition(c.Context, model.FamilyIssue, ref, transition{to: to, guard: guard})
		},
	}
}

func runIssueNew(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

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
	evt, err := builder.Issue(ctx, events.IssueInput{
		Coordinates: tg.coords,
		Maintainers: tg.maintainers(),
		Subject:     subject,
		Body:        body,
		Labels:      c.StringSlice("label"),
		Mentions:    mentions,
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
	fmt.Printf("Issue created: %s\n", nevent)
	return nil
}

func runIssueView(c *cli.Context) error {
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
	ent, err := rt.fetchEntity(ctx, model.FamilyIssue, ref)
	if err != nil {
		return err
	}
	res, _, err := rt.resolveStatus(ctx, ent)
	if err != nil {
		return err
	}
	rt.printEntityBody(ctx, ent.event, model.FamilyIssue, res.Status, ent.targets().relays())
	return nil
}

func runIssueList(c *cli.Context) error {
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
	return rt.listEntities(ctx, model.FamilyIssue, tg, c.Int("limit"))
}
