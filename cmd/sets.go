package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/config"
	"github.com/nitcli/nit/internal/model"
)

// SetsCommand manages named groups of repository addresses and relays
// that other commands accept wherever an address or relay is expected.
func SetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sets",
		Usage: "Manage named repository and relay sets",
		Subcommands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Create a named set",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "repo",
						Usage: "Repository `ADDRESS` to include, repeatable",
					},
					&cli.StringSliceFlag{
						Name:    "relay",
						Aliases: []string{"r"},
						Usage:   "Relay `URL` to include, repeatable",
					},
				},
				Action: runSetsNew,
			},
			{
				Name:      "show",
				Usage:     "Show all sets, or the named ones",
				ArgsUsage: "[name]...",
				Action:    runSetsShow,
			},
			{
				Name:      "remove",
				Usage:     "Remove a named set",
				ArgsUsage: "<name>",
				Action:    runSetsRemove,
			},
		},
	}
}

func runSetsNew(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one set name argument, got %d", c.NArg())
	}
	name := c.Args().First()

	// Addresses are stored in naddr form so the set survives config
	// hand-edits; validate them before writing anything.
	addresses := c.StringSlice("repo")
	for _, addr := range addresses {
		if _, ok, err := model.ParseCoordinate(c.Context, addr); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%q is not a repository address", addr)
		}
	}

	err = cfg.AddSet(config.Set{
		Name:      name,
		Addresses: addresses,
		Relays:    c.StringSlice("relay"),
	})
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Set %q created\n", name)
	return nil
}

func runSetsShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	sets := cfg.Sets
	if c.NArg() > 0 {
		sets = sets[:0:0]
		for _, name := range c.Args().Slice() {
			set, err := cfg.FindSet(name)
			if err != nil {
				return err
			}
			sets = append(sets, *set)
		}
	}

	for i, set := range sets {
		if i > 0 {
			fmt.Println("----------")
		}
		fmt.Printf("Name: %s\n", set.Name)
		fmt.Println("Repositories:")
		printList(set.Addresses)
		fmt.Println("Relays:")
		printList(set.Relays)
	}
	return nil
}

func runSetsRemove(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one set name argument, got %d", c.NArg())
	}
	name := c.Args().First()

	if err := cfg.RemoveSet(name); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Set %q removed\n", name)
	return nil
}
