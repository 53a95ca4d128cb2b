package keydir

import (
	"context"
	"sync"
)

// InMemoryDirectory is a process-local Directory used by tests and by the
// offline mode of the CLI. Outage simulates the backend being unreachable.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	records map[string][]byte
	upserts map[string]int
	outage  error
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		records: make(map[string][]byte),
		upserts: make(map[string]int),
	}
}

// SetOutage makes every call fail with err until cleared with nil.
func (d *InMemoryDirectory) SetOutage(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outage = err
}

func (d *InMemoryDirectory) UpsertPublicKey(ctx context.Context, identityID string, publicKey []byte) error {
	if err := ctx.Err(); err != nil {
		return ErrTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.outage != nil {
		return d.outage
	}
	d.records[identityID] = append([]byte(nil), publicKey...)
	d.upserts[identityID]++
	return nil
}

func (d *InMemoryDirectory) FetchPublicKey(ctx context.Context, identityID string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, ErrTimeout
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.outage != nil {
		return nil, false, d.outage
	}
	record, ok := d.records[identityID]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), record...), true, nil
}

// UpsertCount reports how many times an identity's key has been published.
func (d *InMemoryDirectory) UpsertCount(identityID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.upserts[identityID]
}
