// Package config persists user defaults and named repository sets in a
// TOML file, layered under environment overrides.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"github.com/nitcli/nit/internal/model"
)

// Set is a named group of repository addresses and relays, so a user can
// write "kernel" instead of a pile of naddr strings.
type Set struct {
	Name string `koanf:"name"`
	// Addresses hold naddr strings, relays embedded.
	Addresses []string `koanf:"addresses"`
	Relays    []string `koanf:"relays"`
}

// Config is the on-disk configuration.
type Config struct {
	Sets []Set `koanf:"sets"`
	// Pow is the default proof-of-work difficulty for outgoing events.
	Pow int `koanf:"pow"`
	// FallbackRelays are used when a command has no other relay source.
	FallbackRelays []string `koanf:"fallback_relays"`
	// BunkerURL is the default NIP-46 signer.
	BunkerURL string `koanf:"bunker_url"`
	// KeyringSecretKey signs with the key stored in the system keyring.
	KeyringSecretKey bool `koanf:"keyring_secret_key"`
}

// SetNotFoundError names a set lookup that failed.
type SetNotFoundError struct {
	Name string
}

func (e *SetNotFoundError) Error() string {
	return fmt.Sprintf("no set with the given name %q", e.Name)
}

// DuplicateSetError names a set that already exists.
type DuplicateSetError struct {
	Name string
}

func (e *DuplicateSetError) Error() string {
	return fmt.Sprintf("duplicate set name %q, each set must have a unique name", e.Name)
}

// DefaultPath returns the config file location under the XDG config dir,
// creating parent directories as needed.
func DefaultPath() (string, error) {
	return xdg.ConfigFile("nit/config.toml")
}

// Load reads the config file, layering defaults, the TOML file, and
// NIT_-prefixed environment variables. A missing file is an empty
// config, not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"pow": 0,
	}, "."), nil)

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	} else {
		log.Debug().Str("path", path).Msg("no config file, starting empty")
	}

	k.Load(env.Provider("NIT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "NIT_")), "__", ".", -1)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config back as TOML.
func (c *Config) Save(path string) error {
	if err := c.normalize(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(c, "koanf"), nil); err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	raw, err := toml.Parser().Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// normalize enforces unique set names and deduplicates each set's
// addresses by coordinate, ignoring embedded relay hints.
func (c *Config) normalize() error {
	names := make(map[string]bool, len(c.Sets))
	for i := range c.Sets {
		name := c.Sets[i].Name
		if names[name] {
			return &DuplicateSetError{Name: name}
		}
		names[name] = true
		c.Sets[i].Addresses = dedupAddresses(c.Sets[i].Addresses)
	}
	return nil
}

func dedupAddresses(addresses []string) []string {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		key := addr
		if coord, ok, err := model.ParseCoordinate(context.Background(), addr); err == nil && ok {
			key = coord.Identity()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

// FindSet returns the named set.
func (c *Config) FindSet(name string) (*Set, error) {
	for i := range c.Sets {
		if c.Sets[i].Name == name {
			return &c.Sets[i], nil
		}
	}
	return nil, &SetNotFoundError{Name: name}
}

// AddSet appends a new set, rejecting duplicates and empty sets.
func (c *Config) AddSet(set Set) error {
	if len(set.Addresses) == 0 && len(set.Relays) == 0 {
		return fmt.Errorf("you can't create a new empty set")
	}
	if _, err := c.FindSet(set.Name); err == nil {
		return &DuplicateSetError{Name: set.Name}
	}
	c.Sets = append(c.Sets, set)
	return nil
}

// RemoveSet deletes the named set.
func (c *Config) RemoveSet(name string) error {
	for i := range c.Sets {
		if c.Sets[i].Name == name {
			c.Sets = append(c.Sets[:i], c.Sets[i+1:]...)
			return nil
		}
	}
	return &SetNotFoundError{Name: name}
}
