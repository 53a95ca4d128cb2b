package keydir

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gigchat/go-backend/internal/platform/ratelimiter"

	"github.com/mr-tron/base58/base58"
)

const defaultRequestTimeout = 10 * time.Second

type wireRecord struct {
	IdentityID string `json:"identity_id"`
	PublicKey  string `json:"public_key"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// HTTPDirectory talks to the hosted backend's key record endpoint:
// PUT /v1/keys/{identity} to upsert, GET /v1/keys/{identity} to fetch.
// A 404 on fetch is the normal "never published" result.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	// Publishes are throttled per identity so a retry loop in the app
	// cannot hammer the directory.
	publishLimiter *ratelimiter.MapLimiter
	now            func() time.Time
}

type HTTPOption func(*HTTPDirectory)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(d *HTTPDirectory) { d.client = client }
}

func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(d *HTTPDirectory) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithPublishLimit(rps float64, burst int) HTTPOption {
	return func(d *HTTPDirectory) {
		d.publishLimiter = ratelimiter.New(rps, burst, 0)
	}
}

func NewHTTPDirectory(baseURL string, opts ...HTTPOption) (*HTTPDirectory, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("directory base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid directory base url: %w", err)
	}
	d := &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: defaultRequestTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *HTTPDirectory) UpsertPublicKey(ctx context.Context, identityID string, publicKey []byte) error {
	if strings.TrimSpace(identityID) == "" {
		return ErrInvalidRecord
	}
	// Fetch rejects anything but 32-byte keys, so publishing one would
	// leave a record no peer can use.
	if len(publicKey) != 32 {
		return fmt.Errorf("%w: public key must be 32 bytes", ErrInvalidRecord)
	}
	if !d.publishLimiter.Allow(identityID, d.now()) {
		return ErrThrottled
	}

	body, err := json.Marshal(wireRecord{
		IdentityID: identityID,
		PublicKey:  base58.Encode(publicKey),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, d.recordURL(identityID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: upsert status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

func (d *HTTPDirectory) FetchPublicKey(ctx context.Context, identityID string) ([]byte, bool, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, false, ErrInvalidRecord
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.recordURL(identityID), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, false, wrapTransportErr(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: fetch status %d", ErrUnreachable, resp.StatusCode)
	}

	var record wireRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	publicKey, err := base58.Decode(record.PublicKey)
	if err != nil || len(publicKey) != 32 {
		return nil, false, fmt.Errorf("%w: malformed public key", ErrInvalidRecord)
	}
	return publicKey, true, nil
}

func (d *HTTPDirectory) recordURL(identityID string) string {
	return d.baseURL + "/v1/keys/" + url.PathEscape(identityID)
}

func wrapTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
