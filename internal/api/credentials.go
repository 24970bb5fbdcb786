package api

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// CredentialSource resolves an access token for a client signature and server host.
type CredentialSource interface {
	// Lookup returns the token stored for (signature, host).
	// An empty token with a nil error means no credential is stored.
	Lookup(signature, host string) (string, error)
}

// KeyringSource reads tokens from the operating system credential store.
// Entries are stored with the server host as service and the client
// signature as account.
type KeyringSource struct{}

// Lookup implements CredentialSource.
func (KeyringSource) Lookup(signature, host string) (string, error) {
	if signature == "" || host == "" {
		return "", nil
	}
	token, err := keyring.Get(host, signature)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring lookup for %s@%s: %w", signature, host, err)
	}
	return token, nil
}

// StoreToken saves a token in the operating system credential store
// under the same (host, signature) key KeyringSource reads.
func StoreToken(signature, host, token string) error {
	if err := keyring.Set(host, signature, token); err != nil {
		return fmt.Errorf("keyring store for %s@%s: %w", signature, host, err)
	}
	return nil
}

// StaticSource is a fixed token map keyed by host, used by tests and by
// hosts that already hold a token.
type StaticSource map[string]string

// Lookup implements CredentialSource.
func (s StaticSource) Lookup(_, host string) (string, error) {
	return s[host], nil
}
