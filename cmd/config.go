package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/nitcli/nit/internal/signer"
)

// ConfigCommand manages the persistent defaults other commands pick up.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage persistent defaults",
		Subcommands: []*cli.Command{
			{
				Name:      "pow",
				Usage:     "Set the default proof-of-work difficulty",
				ArgsUsage: "<difficulty>",
				Action:    runConfigPow,
			},
			{
				Name:  "relays",
				Usage: "Set the fallback relays used when a command names none",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "relay",
						Aliases:  []string{"r"},
						Usage:    "Relay `URL`, repeatable; replaces the stored list",
						Required: true,
					},
				},
				Action: runConfigRelays,
			},
			{
				Name:      "bunker",
				Usage:     "Set or clear the NIP-46 bunker signer",
				ArgsUsage: "[url]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Forget the stored bunker URL",
					},
				},
				Action: runConfigBunker,
			},
			{
				Name:      "keyring",
				Usage:     "Store the secret key in the system keyring, or clear it",
				ArgsUsage: "[nsec|hex]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Remove the secret key from the keyring",
					},
				},
				Action: runConfigKeyring,
			},
		},
	}
}

func runConfigPow(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one difficulty argument, got %d", c.NArg())
	}
	difficulty, err := strconv.Atoi(c.Args().First())
	if err != nil || difficulty < 0 {
		return fmt.Errorf("difficulty must be a non-negative integer, got %q", c.Args().First())
	}

	cfg.Pow = difficulty
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Default proof-of-work difficulty set to %d\n", difficulty)
	return nil
}

func runConfigRelays(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.FallbackRelays = c.StringSlice("relay")
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Println("Fallback relays updated")
	return nil
}

func runConfigBunker(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	switch {
	case c.Bool("clear"):
		cfg.BunkerURL = ""
	case c.NArg() == 1:
		cfg.BunkerURL = c.Args().First()
	default:
		return fmt.Errorf("expected a bunker URL argument or --clear")
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	if cfg.BunkerURL == "" {
		fmt.Println("Bunker URL cleared")
	} else {
		fmt.Println("Bunker URL stored")
	}
	return nil
}

func runConfigKeyring(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}

	if c.Bool("clear") {
		if err := signer.DeleteSecret(); err != nil {
			return err
		}
		cfg.KeyringSecretKey = false
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Println("Secret key removed from the keyring")
		return nil
	}

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one secret key argument, got %d", c.NArg())
	}
	secret := c.Args().First()
	// Reject malformed keys before they reach the keyring.
	if _, err := signer.NewLocal(secret); err != nil {
		return err
	}
	if err := signer.StoreSecret(secret); err != nil {
		return err
	}
	cfg.KeyringSecretKey = true
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Println("Secret key stored in the keyring")
	return nil
}
