package auth

import "sync"

// MockStore implements CredentialStore in memory for tests
type MockStore struct {
	name  string
	creds *Credentials
	mu    sync.RWMutex

	// Error injection for testing
	SaveError   error
	LoadError   error
	DeleteError error
}

// NewMockStore creates an empty mock store
func NewMockStore(name string) *MockStore {
	return &MockStore{name: name}
}

func (m *MockStore) Name() string {
	return m.name
}

func (m *MockStore) Save(creds *Credentials) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *creds
	m.creds = &c
	return nil
}

func (m *MockStore) Load() (*Credentials, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.creds == nil {
		return nil, ErrCredentialsNotFound
	}
	c := *m.creds
	return &c, nil
}

func (m *MockStore) Delete() error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.creds == nil {
		return ErrCredentialsNotFound
	}
	m.creds = nil
	return nil
}

func (m *MockStore) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds != nil
}
