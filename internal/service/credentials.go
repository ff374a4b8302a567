package service

import (
	"sort"
	"sync"
)

// CredentialStore is the external secret-store collaborator. Values held
// here are never written to the scope files in plaintext; scope documents
// reference credentials by logical name only (api.keyName).
type CredentialStore interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	Has(name string) bool
	List() []string
	Delete(name string) error
}

// MemoryCredentialStore is the in-process default, used when no encrypted
// backend is wired in. Suitable for tests and ephemeral sessions only.
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryCredentialStore creates an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{values: make(map[string]string)}
}

func (s *MemoryCredentialStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

func (s *MemoryCredentialStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemoryCredentialStore) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[name]
	return ok
}

func (s *MemoryCredentialStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemoryCredentialStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}
