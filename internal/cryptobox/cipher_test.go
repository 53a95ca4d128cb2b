package cryptobox

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func generatePair(t *testing.T) (pub, priv []byte) {
	t.Helper()
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair failed: %v", err)
	}
	return pub, priv
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	_, alicePriv := generatePair(t)
	bobPub, bobPriv := generatePair(t)

	cases := []string{
		"hello",
		"",
		"héllo wörld",
		"🔑🔒 emoji payload 🙂",
		strings.Repeat("multi-kilobyte plaintext ", 200),
	}
	for _, plaintext := range cases {
		env, err := Encrypt(plaintext, bobPub, alicePriv)
		if err != nil {
			t.Fatalf("encrypt %q failed: %v", plaintext[:min(len(plaintext), 16)], err)
		}
		got, err := Decrypt(env, bobPriv)
		if err != nil {
			t.Fatalf("decrypt failed: %v", err)
		}
		if got != plaintext {
			t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
		}
	}
}

func TestEnvelopeCarriesSenderPublicKey(t *testing.T) {
	alicePub, alicePriv := generatePair(t)
	bobPub, _ := generatePair(t)

	env, err := Encrypt("hi", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if env.Version != EnvelopeVersion {
		t.Fatalf("unexpected version: %s", env.Version)
	}
	if !bytes.Equal(env.SenderPublicKey, alicePub) {
		t.Fatal("envelope must embed the sender public key derived from the private key")
	}
}

func TestDecryptRejectsTamperedEnvelope(t *testing.T) {
	_, alicePriv := generatePair(t)
	bobPub, bobPriv := generatePair(t)

	env, err := Encrypt("tamper me", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	for i := range env.Ciphertext {
		mutated := env
		mutated.Ciphertext = append([]byte(nil), env.Ciphertext...)
		mutated.Ciphertext[i] ^= 0x01
		if _, err := Decrypt(mutated, bobPriv); !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("ciphertext bit flip at %d must fail with ErrDecryptFailed, got %v", i, err)
		}
	}
	for i := range env.Nonce {
		mutated := env
		mutated.Nonce = append([]byte(nil), env.Nonce...)
		mutated.Nonce[i] ^= 0x01
		if _, err := Decrypt(mutated, bobPriv); !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("nonce bit flip at %d must fail with ErrDecryptFailed, got %v", i, err)
		}
	}
}

func TestDecryptRejectsWrongRecipientKey(t *testing.T) {
	_, alicePriv := generatePair(t)
	bobPub, _ := generatePair(t)
	_, carolPriv := generatePair(t)

	env, err := Encrypt("for bob only", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := Decrypt(env, carolPriv); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed for wrong recipient key, got %v", err)
	}
}

func TestDecryptRejectsUnknownVersion(t *testing.T) {
	_, alicePriv := generatePair(t)
	bobPub, bobPriv := generatePair(t)

	env, err := Encrypt("versioned", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	for _, version := range []string{"x25519-aes256-gcm", ""} {
		mutated := env
		mutated.Version = version
		if _, err := Decrypt(mutated, bobPriv); !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("version %q must fail closed with ErrDecryptFailed, got %v", version, err)
		}
	}
}

func TestEncryptUsesFreshNonces(t *testing.T) {
	_, alicePriv := generatePair(t)
	bobPub, _ := generatePair(t)

	env1, err := Encrypt("same plaintext", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("first encrypt failed: %v", err)
	}
	env2, err := Encrypt("same plaintext", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("second encrypt failed: %v", err)
	}
	if bytes.Equal(env1.Nonce, env2.Nonce) {
		t.Fatal("two encryptions must not share a nonce")
	}
	if bytes.Equal(env1.Ciphertext, env2.Ciphertext) {
		t.Fatal("identical plaintexts must not produce identical ciphertexts")
	}
}

func TestValidateEnvelopeRejectsMalformedFields(t *testing.T) {
	_, alicePriv := generatePair(t)
	bobPub, _ := generatePair(t)
	env, err := Encrypt("ok", bobPub, alicePriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	missingVersion := env
	missingVersion.Version = ""
	if err := ValidateEnvelope(missingVersion); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope for missing version, got %v", err)
	}

	shortNonce := env
	shortNonce.Nonce = env.Nonce[:NonceSize-1]
	if err := ValidateEnvelope(shortNonce); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope for short nonce, got %v", err)
	}

	emptyCiphertext := env
	emptyCiphertext.Ciphertext = nil
	if err := ValidateEnvelope(emptyCiphertext); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope for empty ciphertext, got %v", err)
	}
}
