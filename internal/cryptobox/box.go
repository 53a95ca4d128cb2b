package cryptobox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	PublicKeySize  = 32
	PrivateKeySize = 32
	NonceSize      = 24
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrRandomSource   = errors.New("secure random source failed")
)

// GenerateKeyPair creates a fresh X25519 key pair from the secure random source.
func GenerateKeyPair() (publicKey, privateKey []byte, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return pub[:], priv[:], nil
}

// DerivePublicKey recomputes the public half from a private scalar via
// base-point multiplication. Deterministic for a given private key.
func DerivePublicKey(privateKey []byte) ([]byte, error) {
	if len(privateKey) != PrivateKeySize {
		return nil, ErrInvalidKeySize
	}
	return curve25519.X25519(privateKey, curve25519.Basepoint)
}

// RandomNonce returns a fresh 24-byte nonce. A nonce is valid for exactly
// one seal under a given key pair.
func RandomNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return nonce, nil
}

func toKeyArray(key []byte) (*[32]byte, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeySize
	}
	var out [32]byte
	copy(out[:], key)
	return &out, nil
}
