package auth

import (
	"os"
	"time"
)

// APIKeyEnv is the environment variable holding the API key
const APIKeyEnv = "TUMBLR_API_KEY"

// EnvironmentStore implements CredentialStore over TUMBLR_API_KEY. It only
// answers for the default profile and is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the key from the environment for the default profile
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	if name != "" && name != DefaultName {
		return nil, ErrCredentialsNotFound
	}

	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Name:         DefaultName,
		APIKey:       key,
		LastModified: time.Time{},
	}, nil
}

// List returns the environment credential if one is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve(DefaultName)
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment holds a key for name
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
