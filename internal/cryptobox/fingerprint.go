package cryptobox

import (
	"fmt"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

const fingerprintPrefix = "gigk1"

// Fingerprint returns a short, human-comparable form of a public key for
// safety-number display and sanitized logs. Never applied to private keys.
func Fingerprint(publicKey []byte) (string, error) {
	if len(publicKey) != PublicKeySize {
		return "", fmt.Errorf("invalid public key size: %d", len(publicKey))
	}
	h := blake2b.Sum256(publicKey)
	return fingerprintPrefix + base58.Encode(h[:8]), nil
}
