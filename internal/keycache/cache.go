package keycache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gigchat/go-backend/pkg/models"
)

// Cache is the local identity → last-known public key table. It never
// talks to the network; a miss means the caller consults the directory
// and populates the cache only on a genuine result. Entries are
// invalidated explicitly (e.g. on a key-rotated signal), never expired.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	path    string
}

// New returns a memory-only cache.
func New() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// NewPersistent returns a cache backed by a plain JSON file. Public keys
// are not secret, so the file is deliberately not confidentiality
// protected.
func NewPersistent(path string) (*Cache, error) {
	c := &Cache{entries: make(map[string][]byte), path: path}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) Get(identityID string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.entries[identityID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), key...), true
}

func (c *Cache) Put(identityID string, publicKey []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identityID] = append([]byte(nil), publicKey...)
	return c.saveLocked()
}

func (c *Cache) Invalidate(identityID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, identityID)
	return c.saveLocked()
}

// Wipe drops every entry, used on logout/identity switch.
func (c *Cache) Wipe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return c.saveLocked()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var persisted []models.CachedPublicKey
	if err := json.Unmarshal(data, &persisted); err != nil {
		return err
	}
	for _, entry := range persisted {
		c.entries[entry.IdentityID] = append([]byte(nil), entry.PublicKey...)
	}
	return nil
}

func (c *Cache) saveLocked() error {
	if c.path == "" {
		return nil
	}
	persisted := make([]models.CachedPublicKey, 0, len(c.entries))
	for id, key := range c.entries {
		persisted = append(persisted, models.CachedPublicKey{IdentityID: id, PublicKey: key})
	}
	sort.Slice(persisted, func(i, j int) bool { return persisted[i].IdentityID < persisted[j].IdentityID })
	data, err := json.Marshal(persisted)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}
