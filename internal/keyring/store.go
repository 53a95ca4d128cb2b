package keyring

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gigchat/go-backend/internal/securestore"
)

// ErrStorageUnavailable marks confidential-store I/O failure. It is never
// treated as "no key": returning a fresh unpersisted key here would
// desynchronize future sessions.
var ErrStorageUnavailable = errors.New("confidential key store unavailable")

// SecretStore is the confidentiality-protected store for private keys.
// Names are namespaced per identity by the manager, so switching the
// active identity on a shared device cannot read another identity's key.
type SecretStore interface {
	Get(name string) (value []byte, found bool, err error)
	Set(name string, value []byte) error
	Delete(name string) error
}

// InMemorySecretStore backs tests and ephemeral sessions.
type InMemorySecretStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	broken error
}

func NewInMemorySecretStore() *InMemorySecretStore {
	return &InMemorySecretStore{values: make(map[string][]byte)}
}

// Break makes every call fail with err until cleared with nil.
func (s *InMemorySecretStore) Break(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = err
}

func (s *InMemorySecretStore) Get(name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.broken != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, s.broken)
	}
	value, ok := s.values[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *InMemorySecretStore) Set(name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, s.broken)
	}
	s.values[name] = append([]byte(nil), value...)
	return nil
}

func (s *InMemorySecretStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, s.broken)
	}
	delete(s.values, name)
	return nil
}

// EncryptedFileSecretStore keeps all named secrets in one sealed file
// (argon2id + XChaCha20-Poly1305 envelope, 0600 permissions).
type EncryptedFileSecretStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
}

func NewEncryptedFileSecretStore(path, passphrase string) *EncryptedFileSecretStore {
	return &EncryptedFileSecretStore{path: path, passphrase: passphrase}
}

func (s *EncryptedFileSecretStore) Get(name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadLocked()
	if err != nil {
		return nil, false, err
	}
	value, ok := all[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *EncryptedFileSecretStore) Set(name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadLocked()
	if err != nil {
		return err
	}
	all[name] = append([]byte(nil), value...)
	return s.writeLocked(all)
}

func (s *EncryptedFileSecretStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadLocked()
	if err != nil {
		return err
	}
	delete(all, name)
	return s.writeLocked(all)
}

func (s *EncryptedFileSecretStore) loadLocked() (map[string][]byte, error) {
	all := make(map[string][]byte)
	err := securestore.ReadSealedJSON(s.path, s.passphrase, &all)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return all, nil
}

func (s *EncryptedFileSecretStore) writeLocked(all map[string][]byte) error {
	if err := securestore.WriteSealedJSON(s.path, s.passphrase, all); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
