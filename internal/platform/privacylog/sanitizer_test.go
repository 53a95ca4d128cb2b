package privacylog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func logLine(t *testing.T, attrs ...any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(Wrap(slog.NewJSONHandler(&buf, nil)))
	logger.Info("msg", attrs...)

	out := map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line failed: %v", err)
	}
	return out
}

func TestIdentityIDsAreFingerprinted(t *testing.T) {
	out := logLine(t, "identity_id", "gig1alice", "recipient_id", "gig1bob")
	if _, ok := out["identity_id"]; ok {
		t.Fatal("identity_id must not appear in plain form")
	}
	fp, ok := out["identity_id_fp"].(string)
	if !ok || !strings.HasPrefix(fp, "fp_") {
		t.Fatalf("expected fingerprinted identity_id, got %v", out["identity_id_fp"])
	}
	if out["identity_id_fp"] == out["recipient_id_fp"] {
		t.Fatal("different identities must get different fingerprints")
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	out := logLine(t,
		"store_passphrase", "hunter2",
		"mnemonic", "abandon abandon ...",
		"private_key", "deadbeef",
	)
	for _, key := range []string{"store_passphrase", "mnemonic", "private_key"} {
		if out[key] != "[REDACTED]" {
			t.Fatalf("%s must be redacted, got %v", key, out[key])
		}
	}
}

func TestNeutralAttrsPassThrough(t *testing.T) {
	out := logLine(t, "cache_hit", true, "attempt", float64(3))
	if out["cache_hit"] != true {
		t.Fatalf("cache_hit must pass through, got %v", out["cache_hit"])
	}
	if out["attempt"] != float64(3) {
		t.Fatalf("attempt must pass through, got %v", out["attempt"])
	}
}

func TestFingerprintIsStableWithinProcess(t *testing.T) {
	a := FingerprintID("gig1alice")
	b := FingerprintID("gig1alice")
	if a != b {
		t.Fatalf("fingerprint must be stable within a process: %s != %s", a, b)
	}
	if FingerprintID("") != "" {
		t.Fatal("empty value must fingerprint to empty string")
	}
}
