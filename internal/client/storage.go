package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/segmentio/encoding/json"
)

// Storage keys shared with the web client.
const (
	KeyAuthToken   = "authToken"
	KeyEventCode   = "eventCode"
	KeyIsHost      = "isHost"
	KeyDisplayName = "displayName"
	KeyAnonymousID = "anonymousId"
	KeyHostName    = "hostName"
	KeyUserName    = "userName"
)

var legacyTokenKeys = []string{"auth_token", "event_app_auth_token"}

// Storage is a flat string key/value store that survives restarts. It is
// advisory: the server stays authoritative for everything it holds.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(keys ...string) error
	Keys() []string
}

type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *MemoryStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.values)
}

// FileStorage keeps values in a JSON file. Every write replaces the file
// through a rename so readers never see a partial document.
type FileStorage struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// OpenFileStorage loads path (a missing file is empty) and migrates legacy
// token keys.
func OpenFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{path: path, values: make(map[string]string)}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	if err := MigrateLegacyKeys(fs); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the file, picking up writes from other processes.
func (f *FileStorage) Reload() error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		f.mu.Lock()
		f.values = make(map[string]string)
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read storage: %w", err)
	}
	values := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("decode storage: %w", err)
		}
	}
	f.mu.Lock()
	f.values = values
	f.mu.Unlock()
	return nil
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	return value, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

func (f *FileStorage) Remove(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return f.flush()
}

func (f *FileStorage) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.values)
}

func (f *FileStorage) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".storage-*")
	if err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	return nil
}

// MigrateLegacyKeys moves a token stored under an old key to KeyAuthToken and
// drops the old keys. An existing KeyAuthToken wins.
func MigrateLegacyKeys(s Storage) error {
	var found []string
	for _, key := range legacyTokenKeys {
		if _, ok := s.Get(key); ok {
			found = append(found, key)
		}
	}
	if len(found) == 0 {
		return nil
	}
	if _, ok := s.Get(KeyAuthToken); !ok {
		for _, key := range found {
			if token, _ := s.Get(key); token != "" {
				if err := s.Set(KeyAuthToken, token); err != nil {
					return err
				}
				break
			}
		}
	}
	return s.Remove(found...)
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
