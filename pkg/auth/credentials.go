package auth

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"osudl/pkg/config"
	errs "osudl/pkg/errors"
)

// Credentials are the osu! account login details
type Credentials struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

// Validate checks that both fields are present
func (c *Credentials) Validate() error {
	if c == nil || c.Username == "" || c.Password == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// CredentialStore is a place credentials can be kept. osudl stores a single
// account, so stores hold at most one record.
type CredentialStore interface {
	// Name identifies the store in messages
	Name() string

	// Load returns the stored credentials or ErrCredentialsNotFound
	Load() (*Credentials, error)

	// Save replaces the stored credentials
	Save(creds *Credentials) error

	// Delete removes the stored credentials
	Delete() error

	// Exists reports whether credentials are stored
	Exists() bool
}

// Errors
var (
	ErrCredentialsNotFound = errs.New(errs.ErrorTypeAuth, "credentials not found")
	ErrInvalidCredentials  = errs.New(errs.ErrorTypeAuth, "username and password are required")
	ErrStoreUnavailable    = errs.New(errs.ErrorTypeAuth, "credential store unavailable")
)

// Manager looks credentials up across stores in priority order
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager over the default stores: system keyring
// when available, the encrypted file, the legacy plain-text file and the
// environment.
func NewManager() (*Manager, error) {
	home, err := config.HomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(home, "credentials.enc"), home)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores,
		encryptedStore,
		NewLegacyFileStore(filepath.Join(home, "credentials.json")),
		NewEnvironmentStore(),
	)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Load returns credentials from the first store that has them
func (m *Manager) Load() (*Credentials, error) {
	for _, store := range m.stores {
		creds, err := store.Load()
		if err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

// Save stores a copy of creds in the first store that accepts it and
// returns that store's name
func (m *Manager) Save(creds *Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}

	stamped := *creds
	stamped.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Save(&stamped)
		if err == nil {
			return store.Name(), nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return "", ErrStoreUnavailable
}

// Delete removes credentials from every store and returns the names of the
// stores that held them
func (m *Manager) Delete() ([]string, error) {
	var deleted []string
	var failures []error

	for _, store := range m.stores {
		if !store.Exists() {
			continue
		}
		err := store.Delete()
		switch {
		case err == nil:
			deleted = append(deleted, store.Name())
		case errors.Is(err, ErrStoreUnavailable):
		default:
			failures = append(failures, fmt.Errorf("%s: %w", store.Name(), err))
		}
	}

	if len(failures) > 0 {
		return deleted, fmt.Errorf("failed to delete credentials: %w", errors.Join(failures...))
	}
	if len(deleted) == 0 {
		return nil, ErrCredentialsNotFound
	}
	return deleted, nil
}

// Check reports which store, if any, currently provides credentials
func (m *Manager) Check() (string, bool) {
	for _, store := range m.stores {
		if store.Exists() {
			return store.Name(), true
		}
	}
	return "", false
}

// SanitizeCredentials returns a copy with the password masked for display
func SanitizeCredentials(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}
	return &Credentials{
		Username:     creds.Username,
		Password:     maskString(creds.Password),
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first 2 and last 2 characters of a string
func maskString(s string) string {
	if len(s) <= 6 {
		return "********"
	}
	return s[:2] + "..." + s[len(s)-2:]
}
