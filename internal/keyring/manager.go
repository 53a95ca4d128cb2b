package keyring

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"gigchat/go-backend/internal/cryptobox"
	"gigchat/go-backend/internal/keydir"
	"gigchat/go-backend/internal/platform/metrics"
	"gigchat/go-backend/pkg/models"
)

var ErrInvalidIdentity = errors.New("invalid identity id")

// Manager owns the per-identity key pair lifecycle:
// absent → generated+persisted → published. The private half lives in the
// SecretStore; the public half is pushed to the directory. A usable key
// pair exists before its public half is known to peers, so a failed
// publish never fails GetOrGenerateKeyPair; callers that need publish
// liveness check HasPendingPublish or call PublishPublicKey themselves.
type Manager struct {
	store     SecretStore
	directory keydir.Directory
	logger    *slog.Logger
	metrics   *metrics.Set

	mu             sync.Mutex
	identityLocks  map[string]*sync.Mutex
	pendingPublish map[string]bool
}

func NewManager(store SecretStore, directory keydir.Directory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:          store,
		directory:      directory,
		logger:         logger,
		identityLocks:  make(map[string]*sync.Mutex),
		pendingPublish: make(map[string]bool),
	}
}

// SetMetrics attaches counters; a nil set disables them.
func (m *Manager) SetMetrics(set *metrics.Set) {
	m.metrics = set
}

// GetOrGenerateKeyPair loads the stored private key for identityID and
// re-derives its public half, or generates, persists and publishes a
// fresh pair on first use. Generation for one identity is serialized so
// concurrent first calls cannot race to persist two different keys.
func (m *Manager) GetOrGenerateKeyPair(ctx context.Context, identityID string) (models.KeyPair, error) {
	if strings.TrimSpace(identityID) == "" {
		return models.KeyPair{}, ErrInvalidIdentity
	}
	lock := m.lockFor(identityID)
	lock.Lock()
	defer lock.Unlock()

	name := privateKeyName(identityID)
	privateKey, found, err := m.store.Get(name)
	if err != nil {
		return models.KeyPair{}, err
	}
	if found {
		publicKey, err := cryptobox.DerivePublicKey(privateKey)
		if err != nil {
			return models.KeyPair{}, err
		}
		return models.KeyPair{PublicKey: publicKey, PrivateKey: privateKey}, nil
	}

	publicKey, privateKey, err := cryptobox.GenerateKeyPair()
	if err != nil {
		return models.KeyPair{}, err
	}
	if m.metrics != nil {
		m.metrics.KeyPairsGenerated.Inc()
	}
	// Persist before publishing: a published key that was never stored
	// would be unrecoverable.
	if err := m.store.Set(name, privateKey); err != nil {
		return models.KeyPair{}, err
	}

	if err := m.directory.UpsertPublicKey(ctx, identityID, publicKey); err != nil {
		m.setPendingPublish(identityID, true)
		if m.metrics != nil {
			m.metrics.PublishFailures.Inc()
		}
		m.logger.Warn("public key publish deferred",
			"identity_id", identityID,
			"error", err,
		)
	} else {
		m.setPendingPublish(identityID, false)
	}
	return models.KeyPair{PublicKey: publicKey, PrivateKey: privateKey}, nil
}

// PublishPublicKey upserts the public key for identityID. Republishing
// the same value is a no-op in effect; errors propagate so a rotation
// flow knows publication did not happen.
func (m *Manager) PublishPublicKey(ctx context.Context, identityID string, publicKey []byte) error {
	if strings.TrimSpace(identityID) == "" {
		return ErrInvalidIdentity
	}
	if err := m.directory.UpsertPublicKey(ctx, identityID, publicKey); err != nil {
		m.setPendingPublish(identityID, true)
		if m.metrics != nil {
			m.metrics.PublishFailures.Inc()
		}
		return err
	}
	m.setPendingPublish(identityID, false)
	return nil
}

// HasPendingPublish reports whether the last publish attempt for
// identityID failed and has not succeeded since.
func (m *Manager) HasPendingPublish(identityID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingPublish[identityID]
}

// DeleteKeyPair removes the stored private key on logout or identity
// switch. The directory record is left as-is; peers keep the last
// published key until the identity regenerates.
func (m *Manager) DeleteKeyPair(identityID string) error {
	if strings.TrimSpace(identityID) == "" {
		return ErrInvalidIdentity
	}
	lock := m.lockFor(identityID)
	lock.Lock()
	defer lock.Unlock()
	if err := m.store.Delete(privateKeyName(identityID)); err != nil {
		return err
	}
	m.setPendingPublish(identityID, false)
	return nil
}

func (m *Manager) lockFor(identityID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.identityLocks[identityID]
	if !ok {
		lock = &sync.Mutex{}
		m.identityLocks[identityID] = lock
	}
	return lock
}

func (m *Manager) setPendingPublish(identityID string, pending bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pending {
		m.pendingPublish[identityID] = true
		return
	}
	delete(m.pendingPublish, identityID)
}

// privateKeyName scopes the stored secret by identity so two accounts on
// the same device cannot read each other's keys.
func privateKeyName(identityID string) string {
	return "msgkey/" + identityID + "/x25519-private"
}
