package secret

import (
	"fmt"
	"runtime"
	"sync"
)

// GraphQLTokenKey names the storefront admin API token.
const GraphQLTokenKey = "graphql-token"

// SecretStore keeps credentials out of config.yaml. The desktop build uses
// the macOS Keychain; other platforms fall back to an in-process store and
// the DASHBOARD_GRAPHQL_TOKEN environment variable.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Default returns the platform secret store.
func Default() SecretStore {
	if runtime.GOOS == "darwin" {
		return NewKeychainStore()
	}
	return NewMemoryStore()
}

// MemoryStore holds secrets for the life of the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.values[key]...), nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Lookup returns fallback when it is set, otherwise the stored value of key.
func Lookup(store SecretStore, key, fallback string) (string, error) {
	if fallback != "" || store == nil {
		return fallback, nil
	}
	v, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", key, err)
	}
	return string(v), nil
}
