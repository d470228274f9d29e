package signer

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "nit"
	keyringUser    = "secret-key"
)

// ErrKeyringEmpty is returned when keyring storage was enabled but no
// secret key was stored yet.
var ErrKeyringEmpty = errors.New("no secret key in the system keyring, store one with 'nit config keyring'")

// StoreSecret saves the secret key in the system keyring.
func StoreSecret(secret string) error {
	if err := keyring.Set(keyringService, keyringUser, secret); err != nil {
		return fmt.Errorf("writing to the system keyring: %w", err)
	}
	return nil
}

// LoadSecret reads the secret key back from the system keyring.
func LoadSecret() (string, error) {
	secret, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyringEmpty
	}
	if err != nil {
		return "", fmt.Errorf("reading from the system keyring: %w", err)
	}
	return secret, nil
}

// DeleteSecret removes the stored secret key, if any.
func DeleteSecret() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting from the system keyring: %w", err)
	}
	return nil
}
