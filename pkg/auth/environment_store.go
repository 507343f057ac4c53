package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvAPIKey = "FIRECRAWL_API_KEY"
	EnvAPIURL = "FIRECRAWL_API_URL"
)

// EnvironmentStore exposes FIRECRAWL_API_KEY as a read-only credential
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment key under whatever name is asked for,
// or "env" when name is empty
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	key := os.Getenv(EnvAPIKey)
	if key == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = "env"
	}

	return &Credential{
		Name:         name,
		APIKey:       key,
		APIURL:       os.Getenv(EnvAPIURL),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvAPIKey) != ""
}
