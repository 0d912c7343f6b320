package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "osudl"
	keyringUser    = "credentials"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring store after checking that the system
// keychain accepts writes
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{service: keyringService}, nil
}

func (k *KeyringStore) Name() string {
	return "system keyring"
}

func (k *KeyringStore) Save(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := keyring.Set(k.service, keyringUser, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Load() (*Credentials, error) {
	data, err := keyring.Get(k.service, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

func (k *KeyringStore) Delete() error {
	err := keyring.Delete(k.service, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Exists() bool {
	_, err := keyring.Get(k.service, keyringUser)
	return err == nil
}
