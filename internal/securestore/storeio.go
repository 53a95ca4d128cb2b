package securestore

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadSealedJSON reads path, opens the envelope and unmarshals the payload
// into v. A missing file is reported via os.IsNotExist on the returned error.
func ReadSealedJSON(path, passphrase string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := Open(passphrase, raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, v)
}

// WriteSealedJSON marshals v, seals it and writes it with private
// permissions, creating parent directories as needed.
func WriteSealedJSON(path, passphrase string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sealed, err := Seal(passphrase, payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, sealed, 0o600)
}
