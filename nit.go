package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "nit",
		Usage:   "Decentralized git collaboration over nostr relays",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Increase log verbosity, repeatable",
			},
		},
		Before: func(c *cli.Context) error {
			var level zerolog.Level
			switch c.Count("verbose") {
			case 0:
				level = zerolog.WarnLevel
			case 1:
				level = zerolog.InfoLevel
			case 2:
				level = zerolog.DebugLevel
			default:
				level = zerolog.TraceLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			return nil
		},
		Commands: []*cli.Command{
			cmd.RepoCommand(),
			cmd.IssueCommand(),
			cmd.PatchCommand(),
			cmd.PRCommand(),
			cmd.ReplyCommand(),
			cmd.SetsCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
