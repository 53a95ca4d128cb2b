package securestore

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// File format: a fixed magic line followed by a JSON envelope. The envelope
// records its own KDF parameters so they can be raised later without
// breaking existing files.
const (
	envelopeVersion = 1
	saltSize        = 16
	magic           = "GIGSEC1\n"
)

var (
	ErrAuthFailed = errors.New("securestore authentication failed")
	ErrInvalid    = errors.New("securestore envelope is invalid")
)

type kdfParams struct {
	Time     uint32 `json:"time"`
	MemoryKB uint32 `json:"memory_kb"`
	Threads  uint8  `json:"threads"`
}

var defaultKDF = kdfParams{Time: 2, MemoryKB: 64 * 1024, Threads: 1}

// maxKDFMemoryKB bounds file-supplied KDF memory at 1 GiB so a crafted
// envelope cannot force an arbitrarily large allocation.
const maxKDFMemoryKB = 1 << 20

// validate rejects parameter combinations argon2.IDKey would panic on,
// plus oversized memory demands.
func (p kdfParams) validate() error {
	if p.Time < 1 || p.Threads < 1 {
		return fmt.Errorf("%w: bad kdf params", ErrInvalid)
	}
	if p.MemoryKB < 8*uint32(p.Threads) || p.MemoryKB > maxKDFMemoryKB {
		return fmt.Errorf("%w: bad kdf params", ErrInvalid)
	}
	return nil
}

type Envelope struct {
	Version    uint32    `json:"version"`
	KDF        string    `json:"kdf"`
	Params     kdfParams `json:"params"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
}

// Seal encrypts plaintext under a passphrase-derived key and returns the
// serialized envelope ready to be written to disk.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveKey(passphrase, salt, defaultKDF)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	env := Envelope{
		Version:    envelopeVersion,
		KDF:        "argon2id",
		Params:     defaultKDF,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(magic), raw...), nil
}

// Open authenticates and decrypts data previously produced by Seal.
// Any tampering with the envelope surfaces as ErrAuthFailed.
func Open(passphrase string, data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte(magic)) {
		return nil, fmt.Errorf("%w: missing magic", ErrInvalid)
	}
	var env Envelope
	if err := json.Unmarshal(data[len(magic):], &env); err != nil {
		return nil, ErrInvalid
	}
	if env.Version != envelopeVersion || env.KDF != "argon2id" {
		return nil, ErrInvalid
	}
	if len(env.Salt) != saltSize || len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrInvalid
	}
	if err := env.Params.validate(); err != nil {
		return nil, err
	}

	key := deriveKey(passphrase, env.Salt, env.Params)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte, p kdfParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
