package auth

import "os"

const (
	envUsername = "OSUDL_USERNAME"
	envPassword = "OSUDL_PASSWORD"
)

// EnvironmentStore reads credentials from OSUDL_USERNAME and
// OSUDL_PASSWORD. It cannot save or delete.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string {
	return "environment"
}

func (e *EnvironmentStore) Save(creds *Credentials) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Load() (*Credentials, error) {
	username := os.Getenv(envUsername)
	password := os.Getenv(envPassword)
	if username == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Credentials{Username: username, Password: password}, nil
}

func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists() bool {
	return os.Getenv(envUsername) != "" && os.Getenv(envPassword) != ""
}
