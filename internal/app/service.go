package app

import (
	"context"
	"errors"
	"log/slog"

	"gigchat/go-backend/internal/cryptobox"
	"gigchat/go-backend/internal/keycache"
	"gigchat/go-backend/internal/keydir"
	"gigchat/go-backend/internal/keyring"
	"gigchat/go-backend/internal/platform/metrics"
	"gigchat/go-backend/pkg/models"
)

// ErrNoPublishedKey means the recipient has never published a public key.
// This is a legitimate state for identities that never opened the app;
// the caller decides the fallback.
var ErrNoPublishedKey = errors.New("recipient has no published key")

// Service is the surface the rest of the application talks to: key pair
// lifecycle, cache-then-directory recipient lookup, and message
// encryption/decryption.
type Service struct {
	keys      *keyring.Manager
	cache     *keycache.Cache
	directory keydir.Directory
	logger    *slog.Logger
	metrics   *metrics.Set
}

type Options struct {
	Store     keyring.SecretStore
	Directory keydir.Directory
	Cache     *keycache.Cache
	Logger    *slog.Logger
	Metrics   *metrics.Set
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := opts.Cache
	if cache == nil {
		cache = keycache.New()
	}
	keys := keyring.NewManager(opts.Store, opts.Directory, logger)
	keys.SetMetrics(opts.Metrics)
	return &Service{
		keys:      keys,
		cache:     cache,
		directory: opts.Directory,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Keys exposes the key pair manager for flows that need it directly
// (publish retry, mnemonic backup).
func (s *Service) Keys() *keyring.Manager {
	return s.keys
}

func (s *Service) GetOrGenerateKeyPair(ctx context.Context, identityID string) (models.KeyPair, error) {
	return s.keys.GetOrGenerateKeyPair(ctx, identityID)
}

// RecipientPublicKey resolves a recipient's public key from the local
// cache, falling back to the directory on a miss. Only a genuine
// directory hit populates the cache; transient errors never poison it
// with a false negative.
func (s *Service) RecipientPublicKey(ctx context.Context, identityID string) ([]byte, bool, error) {
	if key, ok := s.cache.Get(identityID); ok {
		s.count(func(m *metrics.Set) { m.CacheHits.Inc() })
		return key, true, nil
	}
	s.count(func(m *metrics.Set) { m.CacheMisses.Inc() })

	key, found, err := s.directory.FetchPublicKey(ctx, identityID)
	if err != nil {
		s.count(func(m *metrics.Set) { m.DirectoryFetches.WithLabelValues(metrics.FetchError).Inc() })
		return nil, false, err
	}
	if !found {
		s.count(func(m *metrics.Set) { m.DirectoryFetches.WithLabelValues(metrics.FetchAbsent).Inc() })
		return nil, false, nil
	}
	s.count(func(m *metrics.Set) { m.DirectoryFetches.WithLabelValues(metrics.FetchHit).Inc() })
	if err := s.cache.Put(identityID, key); err != nil {
		// A cache write failure degrades to a directory round trip next
		// time; the fetched key is still good.
		s.logger.Warn("public key cache write failed", "recipient_id", identityID, "error", err)
	}
	return key, true, nil
}

// InvalidateRecipientKey drops the cached key for identityID, e.g. on a
// key-rotated signal from the backend.
func (s *Service) InvalidateRecipientKey(identityID string) error {
	return s.cache.Invalidate(identityID)
}

func (s *Service) EncryptMessage(plaintext string, recipientPublicKey, senderPrivateKey []byte) (cryptobox.Envelope, error) {
	env, err := cryptobox.Encrypt(plaintext, recipientPublicKey, senderPrivateKey)
	if err != nil {
		return cryptobox.Envelope{}, err
	}
	s.count(func(m *metrics.Set) { m.EncryptOps.Inc() })
	return env, nil
}

func (s *Service) DecryptMessage(env cryptobox.Envelope, recipientPrivateKey []byte) (string, error) {
	plaintext, err := cryptobox.Decrypt(env, recipientPrivateKey)
	if err != nil {
		s.count(func(m *metrics.Set) { m.DecryptFailures.Inc() })
		return "", err
	}
	return plaintext, nil
}

// EncryptTo is the full sending path: own key pair, recipient key via
// cache/directory, then seal.
func (s *Service) EncryptTo(ctx context.Context, senderID, recipientID, plaintext string) (cryptobox.Envelope, error) {
	pair, err := s.keys.GetOrGenerateKeyPair(ctx, senderID)
	if err != nil {
		return cryptobox.Envelope{}, err
	}
	recipientKey, found, err := s.RecipientPublicKey(ctx, recipientID)
	if err != nil {
		return cryptobox.Envelope{}, err
	}
	if !found {
		return cryptobox.Envelope{}, ErrNoPublishedKey
	}
	return s.EncryptMessage(plaintext, recipientKey, pair.PrivateKey)
}

// DecryptFor is the receiving path: the envelope already names the sender
// key, so only the recipient's own private key is needed.
func (s *Service) DecryptFor(ctx context.Context, recipientID string, env cryptobox.Envelope) (string, error) {
	pair, err := s.keys.GetOrGenerateKeyPair(ctx, recipientID)
	if err != nil {
		return "", err
	}
	return s.DecryptMessage(env, pair.PrivateKey)
}

// Logout deletes the identity's private key and wipes the public key
// cache, so a following login on a shared device starts clean.
func (s *Service) Logout(identityID string) error {
	if err := s.keys.DeleteKeyPair(identityID); err != nil {
		return err
	}
	if err := s.cache.Wipe(); err != nil {
		return err
	}
	s.logger.Info("identity logged out", "identity_id", identityID)
	return nil
}

func (s *Service) count(fn func(*metrics.Set)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}
