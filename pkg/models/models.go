package models

// KeyPair is an X25519 key pair. PublicKey is always derivable from
// PrivateKey via base-point scalar multiplication; the two are never
// persisted inconsistently.
type KeyPair struct {
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"-"`
}

// CachedPublicKey is a local, non-confidential last-known public key for
// a peer identity. Entries are invalidated explicitly, never auto-expired.
type CachedPublicKey struct {
	IdentityID string `json:"identity_id"`
	PublicKey  []byte `json:"public_key"`
}
