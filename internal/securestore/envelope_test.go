package securestore

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	sealed, err := Seal("pass", []byte("private key material"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	plain, err := Open("pass", sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if string(plain) != "private key material" {
		t.Fatalf("unexpected plaintext: %q", plain)
	}
}

func TestOpenWrongPassphraseFailsAuth(t *testing.T) {
	sealed, err := Seal("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := Open("wrong", sealed); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestOpenTamperedEnvelopeFails(t *testing.T) {
	sealed, err := Seal("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	sealed[len(sealed)-3] ^= 0xAB
	if _, err := Open("pass", sealed); !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed or ErrInvalid, got %v", err)
	}
}

// resealWithParams rewrites a sealed envelope's KDF parameters in place,
// simulating a tampered or corrupted file.
func resealWithParams(t *testing.T, sealed []byte, p kdfParams) []byte {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(sealed[len(magic):], &env); err != nil {
		t.Fatalf("unmarshal sealed envelope failed: %v", err)
	}
	env.Params = p
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope failed: %v", err)
	}
	return append([]byte(magic), raw...)
}

func TestOpenRejectsTamperedKDFParams(t *testing.T) {
	sealed, err := Seal("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}

	cases := map[string]kdfParams{
		"zeroed":          {},
		"zero time":       {Time: 0, MemoryKB: 64 * 1024, Threads: 1},
		"zero threads":    {Time: 2, MemoryKB: 64 * 1024, Threads: 0},
		"memory too low":  {Time: 2, MemoryKB: 4, Threads: 1},
		"memory too high": {Time: 2, MemoryKB: maxKDFMemoryKB + 1, Threads: 1},
	}
	for name, params := range cases {
		tampered := resealWithParams(t, sealed, params)
		if _, err := Open("pass", tampered); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s params must fail with ErrInvalid, got %v", name, err)
		}
	}
}

func TestOpenRejectsMissingMagic(t *testing.T) {
	if _, err := Open("pass", []byte(`{"version":1}`)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
