package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// LegacyFileStore reads the plain-text credentials.json written by earlier
// releases of the downloader. It never writes; saving goes to a secure
// store and deleting removes the old file.
type LegacyFileStore struct {
	path string
}

// NewLegacyFileStore creates a store over the given credentials.json path
func NewLegacyFileStore(path string) *LegacyFileStore {
	return &LegacyFileStore{path: path}
}

func (l *LegacyFileStore) Name() string {
	return "credential file " + l.path
}

func (l *LegacyFileStore) Save(creds *Credentials) error {
	return ErrStoreUnavailable
}

func (l *LegacyFileStore) Load() (*Credentials, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(content, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (l *LegacyFileStore) Delete() error {
	if err := os.Remove(l.path); err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}

func (l *LegacyFileStore) Exists() bool {
	info, err := os.Stat(l.path)
	return err == nil && info.Mode().IsRegular()
}
