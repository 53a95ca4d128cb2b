package cryptobox

import (
	"errors"

	"golang.org/x/crypto/nacl/box"
)

// EnvelopeVersion names the only envelope format this build understands.
// Decrypt fails closed on anything else.
const EnvelopeVersion = "x25519-xsalsa20-poly1305"

var (
	// ErrDecryptFailed deliberately does not distinguish wrong key,
	// corruption, tampering or an unknown envelope version.
	ErrDecryptFailed   = errors.New("cannot decrypt message")
	ErrInvalidEnvelope = errors.New("invalid message envelope")
)

// Envelope is the self-describing ciphertext produced by Encrypt.
// Immutable once produced; transport is the caller's concern.
type Envelope struct {
	Version         string `json:"version"`
	Nonce           []byte `json:"nonce"`
	SenderPublicKey []byte `json:"sender_public_key"`
	Ciphertext      []byte `json:"ciphertext"`
}

// ValidateEnvelope checks structural well-formedness only. It says nothing
// about whether the envelope will authenticate.
func ValidateEnvelope(env Envelope) error {
	if env.Version == "" {
		return ErrInvalidEnvelope
	}
	if len(env.Nonce) != NonceSize || len(env.SenderPublicKey) != PublicKeySize || len(env.Ciphertext) == 0 {
		return ErrInvalidEnvelope
	}
	return nil
}

// Encrypt seals plaintext for the recipient with a fresh random nonce.
// The sender's public key is derived from the private key and embedded in
// the envelope so the recipient knows which sender key was used.
func Encrypt(plaintext string, recipientPublicKey, senderPrivateKey []byte) (Envelope, error) {
	recipientPub, err := toKeyArray(recipientPublicKey)
	if err != nil {
		return Envelope{}, err
	}
	senderPriv, err := toKeyArray(senderPrivateKey)
	if err != nil {
		return Envelope{}, err
	}
	senderPublicKey, err := DerivePublicKey(senderPrivateKey)
	if err != nil {
		return Envelope{}, err
	}

	nonceBytes, err := RandomNonce()
	if err != nil {
		return Envelope{}, err
	}
	var nonce [NonceSize]byte
	copy(nonce[:], nonceBytes)

	ciphertext := box.Seal(nil, []byte(plaintext), &nonce, recipientPub, senderPriv)
	return Envelope{
		Version:         EnvelopeVersion,
		Nonce:           nonceBytes,
		SenderPublicKey: senderPublicKey,
		Ciphertext:      ciphertext,
	}, nil
}

// Decrypt opens the envelope with the recipient's private key and the
// sender public key embedded in the envelope. Authentication and
// decryption happen in one operation; no partial plaintext is ever
// returned.
func Decrypt(env Envelope, recipientPrivateKey []byte) (string, error) {
	// Version is checked first so every unknown version, empty included,
	// fails with the same non-distinguishing error.
	if env.Version != EnvelopeVersion {
		return "", ErrDecryptFailed
	}
	if err := ValidateEnvelope(env); err != nil {
		return "", err
	}
	senderPub, err := toKeyArray(env.SenderPublicKey)
	if err != nil {
		return "", err
	}
	recipientPriv, err := toKeyArray(recipientPrivateKey)
	if err != nil {
		return "", err
	}

	var nonce [NonceSize]byte
	copy(nonce[:], env.Nonce)
	plaintext, ok := box.Open(nil, env.Ciphertext, &nonce, senderPub, recipientPriv)
	if !ok {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}
