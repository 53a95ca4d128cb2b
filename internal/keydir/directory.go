package keydir

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnreachable covers transient network or service failure. It is
	// never folded into the "no published key" result; only a genuine
	// fetch outcome may reach the public-key cache.
	ErrUnreachable = errors.New("key directory unreachable")
	// ErrTimeout is a distinct, caller-visible timeout failure that still
	// matches ErrUnreachable in errors.Is checks.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrUnreachable)

	ErrInvalidRecord = errors.New("invalid directory record")
	ErrThrottled     = errors.New("directory publish throttled")
)

// Directory is the remote key directory: exactly one public key per
// identity, last write wins, no history. An identity that has never
// published is a normal absent result, not an error.
type Directory interface {
	UpsertPublicKey(ctx context.Context, identityID string, publicKey []byte) error
	FetchPublicKey(ctx context.Context, identityID string) (publicKey []byte, found bool, err error)
}
