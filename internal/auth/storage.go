package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// StorageBackend defines the interface for credential storage
type StorageBackend interface {
	Save(data []byte) error
	Load() ([]byte, error)
	Delete() error
	Name() string
}

// TokenFileStorage persists the credential as a plain JSON token file,
// overwritten in place whenever the credential is refreshed or reissued.
type TokenFileStorage struct {
	path string
}

// NewTokenFileStorage creates a token file storage backend
func NewTokenFileStorage(path string) *TokenFileStorage {
	return &TokenFileStorage{path: path}
}

func (s *TokenFileStorage) Save(data []byte) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0600)
}

func (s *TokenFileStorage) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("token file not readable: %w", err)
	}
	return data, nil
}

func (s *TokenFileStorage) Delete() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *TokenFileStorage) Name() string {
	return "token-file"
}

// Path returns the token file location
func (s *TokenFileStorage) Path() string {
	return s.path
}

// KeyringStorage uses the system keyring for credential storage
type KeyringStorage struct {
	serviceName string
	account     string
}

// NewKeyringStorage creates a keyring storage backend
func NewKeyringStorage(serviceName, account string) *KeyringStorage {
	return &KeyringStorage{
		serviceName: serviceName,
		account:     account,
	}
}

func (s *KeyringStorage) Save(data []byte) error {
	return keyring.Set(s.serviceName, s.account, string(data))
}

func (s *KeyringStorage) Load() ([]byte, error) {
	data, err := keyring.Get(s.serviceName, s.account)
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *KeyringStorage) Delete() error {
	err := keyring.Delete(s.serviceName, s.account)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

func (s *KeyringStorage) Name() string {
	return "system-keyring"
}

// CheckKeyringAvailable tests if the system keyring is usable
func CheckKeyringAvailable(serviceName string) bool {
	testKey := serviceName + "-test"
	if err := keyring.Set(serviceName, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey)
	return true
}
