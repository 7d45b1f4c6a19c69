package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultKeychainService is the keychain "service" every dashboard secret
// is filed under.
const DefaultKeychainService = "dashboard-storefront"

// errItemNotFound is the exit status of `security` for a missing item.
const errItemNotFound = 44

// KeychainStore keeps secrets in the macOS login keychain through the
// `security` tool.
type KeychainStore struct {
	Service string
	bin     string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{Service: DefaultKeychainService, bin: "security"}
}

func (k *KeychainStore) Set(key string, value []byte) error {
	_, err := k.run("add-generic-password", key, "-w", string(value), "-U")
	if err != nil {
		return fmt.Errorf("keychain set %s: %w", key, err)
	}
	return nil
}

// Get returns nil, nil when the item is missing.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.run("find-generic-password", key, "-w")
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
	return []byte(strings.TrimSpace(out)), nil
}

func (k *KeychainStore) Delete(key string) error {
	_, err := k.run("delete-generic-password", key)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("keychain delete %s: %w", key, err)
	}
	return nil
}

func (k *KeychainStore) run(verb, account string, extra ...string) (string, error) {
	args := append([]string{verb, "-a", account, "-s", k.Service}, extra...)
	cmd := exec.Command(k.bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return string(out), nil
}

func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == errItemNotFound
}
