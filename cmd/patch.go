package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nbd-wtf/go-nostr"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/events"
	"github.com/nitcli/nit/internal/model"
	"github.com/nitcli/nit/internal/patchfile"
	"github.com/nitcli/nit/internal/relayset"
	"github.com/nitcli/nit/internal/status"
)

// PatchCommand covers sending, fetching and transitioning patch series.
func PatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "patch",
		Usage: "Send and track git format-patch series",
		Subcommands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "Publish a patch series from git format-patch files",
				ArgsUsage: "<file>...",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.StringFlag{
						Name:  "as-revision-of",
						Usage: "Root patch `EVENT` this series is a new revision of",
					},
				),
				Action: runPatchSend,
			},
			{
				Name:      "fetch",
				Usage:     "Download a patch series into files",
				ArgsUsage: "<nevent|note>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Directory to write the patch files into",
						Value:   ".",
					},
				),
				Action: runPatchFetch,
			},
			{
				Name:  "list",
				Usage: "List the repositories' patches, newest first",
				Flags: append(commonFlags(),
					repoFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of patches to fetch",
						Value: 50,
					},
				),
				Action: runPatchList,
			},
			{
				Name:      "apply",
				Usage:     "Mark a patch series applied to the repository",
				ArgsUsage: "<nevent|note>",
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:  "commit",
						Usage: "Commit the series was applied as, repeatable",
					},
				),
				Action: runPatchApply,
			},
			{
				Name:      "merge",
				Usage:     "Mark a patch series merged into the repository",
				ArgsUsage: "<nevent|note>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "merge-commit",
						Usage:    "Commit that merged the series",
						Required: true,
					},
				),
				Action: runPatchMerge,
			},
			patchTransition("close", "Close a patch series", model.StatusClosed, status.GuardPatchClose),
			patchTransition("draft", "Mark a patch series as a draft", model.StatusDraft, status.GuardPatchDraft),
			patchTransition("reopen", "Reopen a closed or drafted patch series", model.StatusOpen, status.GuardPatchReopen),
		},
	}
}

func patchTransition(name, usage string, to model.Status, guard status.Guard) *cli.Command {
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
			return rt.runTransition(c.Context, model.FamilyPatch, ref, transition{to: to, guard: guard})
		},
	}
}

func runPatchSend(c *cli.Context) error {
	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := c.Context

	if c.NArg() == 0 {
		return fmt.Errorf("expected at least one patch file argument")
	}
	patches := make([]patchfile.Patch, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		p, err := patchfile.Parse(string(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		patches = append(patches, p)
	}

	var originalRoot string
	var originalRelays []string
	if revisionOf := c.String("as-revision-of"); revisionOf != "" {
		ref, err := model.ParseEventRef(revisionOf)
		if err != nil {
			return err
		}
		root, err := rt.gw.FetchEvent(ctx, relayset.Merge(rt.relays, ref.Relays), ref.ID)
		if err != nil {
			return err
		}
		if !model.IsRootPatch(root) {
			return model.ErrNotRootPatch
		}
		originalRoot = root.ID
		originalRelays = ref.Relays
	}

	tg, err := rt.fetchTargets(ctx, c.StringSlice("repo"))
	if err != nil {
		return err
	}

	builder, err := rt.builder(ctx)
	if err != nil {
		return err
	}
	series, err := builder.PatchSeries(ctx, events.SeriesInput{
		Patches:      patches,
		OriginalRoot: originalRoot,
		Coordinates:  tg.coords,
		EUC:          tg.euc(),
		RelayHint:    tg.relayHint(),
	})
	if err != nil {
		return err
	}

	// Relays must see the root before its replies, so the series goes
	// out in order.
	var rootReceipt string
	for i, evt := range series.Events {
		nevent, err := rt.publish(ctx, evt, publishInput{
			targets:     tg,
			extraRelays: relayset.Merge(series.ContentRelays, originalRelays),
			notify:      tg.maintainers(),
		})
		if err != nil {
			return fmt.Errorf("publishing patch %d of %d: %w", i+1, len(series.Events), err)
		}
		if i == 0 {
			rootReceipt = nevent
		}
	}
	fmt.Printf("Patch series created: %s\n", rootReceipt)
	return nil
}

func runPatchFetch(c *cli.Context) error {
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
	relays := relayset.Merge(rt.relays, ref.Relays)
	root, err := rt.gw.FetchEvent(ctx, relays, ref.ID)
	if err != nil {
		return err
	}
	if !model.IsRootPatch(root) && !model.IsRevisionPatch(root) {
		return model.ErrNotRootPatch
	}

	series, err := rt.fetchSeries(ctx, relays, root)
	if err != nil {
		return err
	}

	outputDir := c.String("output-dir")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	written := make(map[string]bool, len(series))
	for _, evt := range series {
		p, err := patchfile.Parse(evt.Content)
		if err != nil {
			return fmt.Errorf("patch %s: %w", evt.ID, err)
		}
		name, err := p.Filename()
		if err != nil {
			return fmt.Errorf("patch %s: %w", evt.ID, err)
		}
		// Relays may return the same patch under several ids (reposts);
		// the first one under each filename wins.
		if written[name] {
			continue
		}
		written[name] = true
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(evt.Content), 0o644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

// fetchSeries returns the root patch followed by its series members in
// publication order, deduplicated by id.
func (rt *runtime) fetchSeries(ctx context.Context, relays []string, root *nostr.Event) ([]*nostr.Event, error) {
	replies, err := rt.gw.FetchAll(ctx, relays, nostr.Filter{
		Kinds: []int{model.KindPatch},
		Tags:  nostr.TagMap{"e": []string{root.ID}},
	})
	if err != nil {
		return nil, err
	}
	series := []*nostr.Event{root}
	for _, evt := range replies {
		// Revisions reply to the root too but start their own series.
		if evt.ID == root.ID || model.IsRevisionPatch(evt) {
			continue
		}
		series = append(series, evt)
	}
	rest := series[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].CreatedAt < rest[j].CreatedAt
	})
	return series, nil
}

func runPatchList(c *cli.Context) error {
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
	return rt.listEntities(ctx, model.FamilyPatch, tg, c.Int("limit"))
}

func runPatchApply(c *cli.Context) error {
	return runPatchMergeApply(c, transition{
		to:             model.StatusMergedApplied,
		guard:          status.GuardPatchApply,
		appliedCommits: c.StringSlice("commit"),
	})
}

func runPatchMerge(c *cli.Context) error {
	return runPatchMergeApply(c, transition{
		to:          model.StatusMergedApplied,
		guard:       status.GuardPatchMerge,
		mergeCommit: c.String("merge-commit"),
	})
}

// runPatchMergeApply collects the whole series first so the status event
// can quote every patch it marks merged or applied.
func runPatchMergeApply(c *cli.Context, tr transition) error {
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
	relays := relayset.Merge(rt.relays, ref.Relays)
	root, err := rt.gw.FetchEvent(ctx, relays, ref.ID)
	if err != nil {
		return err
	}
	if root.Kind == model.KindPatch {
		series, err := rt.fetchSeries(ctx, relays, root)
		if err != nil {
			return err
		}
		for _, evt := range series {
			tr.mergedPatches = append(tr.mergedPatches, evt.ID)
		}
	}
	return rt.runTransition(ctx, model.FamilyPatch, ref, tr)
}
