package keyring

import (
	"context"
	"errors"
	"strings"

	"gigchat/go-backend/internal/cryptobox"
	"gigchat/go-backend/pkg/models"

	"github.com/tyler-smith/go-bip39"
)

var (
	ErrInvalidMnemonic = errors.New("invalid recovery phrase")
	ErrNoKeyToExport   = errors.New("no stored key to export")
)

// ExportMnemonic encodes the stored private key for identityID as a
// 24-word BIP-39 recovery phrase. The phrase IS the private key; it is
// shown to the user once and never logged.
func (m *Manager) ExportMnemonic(identityID string) (string, error) {
	if strings.TrimSpace(identityID) == "" {
		return "", ErrInvalidIdentity
	}
	lock := m.lockFor(identityID)
	lock.Lock()
	defer lock.Unlock()

	privateKey, found, err := m.store.Get(privateKeyName(identityID))
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNoKeyToExport
	}
	mnemonic, err := bip39.NewMnemonic(privateKey)
	if err != nil {
		return "", err
	}
	return mnemonic, nil
}

// RestoreFromMnemonic decodes a recovery phrase back into a key pair,
// persists the private half under identityID and republishes the public
// half. Publish failure here propagates: a restore flow must know peers
// may still encrypt to the old key.
func (m *Manager) RestoreFromMnemonic(ctx context.Context, identityID, mnemonic string) (models.KeyPair, error) {
	if strings.TrimSpace(identityID) == "" {
		return models.KeyPair{}, ErrInvalidIdentity
	}
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return models.KeyPair{}, ErrInvalidMnemonic
	}
	privateKey, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return models.KeyPair{}, ErrInvalidMnemonic
	}
	if len(privateKey) != cryptobox.PrivateKeySize {
		return models.KeyPair{}, ErrInvalidMnemonic
	}
	publicKey, err := cryptobox.DerivePublicKey(privateKey)
	if err != nil {
		return models.KeyPair{}, err
	}

	lock := m.lockFor(identityID)
	lock.Lock()
	defer lock.Unlock()
	if err := m.store.Set(privateKeyName(identityID), privateKey); err != nil {
		return models.KeyPair{}, err
	}
	if err := m.directory.UpsertPublicKey(ctx, identityID, publicKey); err != nil {
		m.setPendingPublish(identityID, true)
		return models.KeyPair{}, err
	}
	m.setPendingPublish(identityID, false)
	return models.KeyPair{PublicKey: publicKey, PrivateKey: privateKey}, nil
}
