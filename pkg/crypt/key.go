package crypt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Default key locations.
const (
	DefaultKeyEnv  = "LEAPDB_ENCRYPTION_KEY"
	DefaultKeyFile = "/run/secrets/encryption_key"
)

// Source lists where a key may come from, in priority order: an inline
// base64 value, an environment variable, then a file.
type Source struct {
	Key  string
	Env  string
	File string
}

// LoadKey resolves the first configured key in src.
// It returns core.ErrKeyNotConfigured when no location holds a key.
func LoadKey(src Source) ([]byte, error) {
	if src.Key != "" {
		return ParseKey(src.Key)
	}
	if src.Env != "" {
		if v := strings.TrimSpace(os.Getenv(src.Env)); v != "" {
			key, err := ParseKey(v)
			if err != nil {
				return nil, fmt.Errorf("invalid key in $%s: %w", src.Env, err)
			}
			return key, nil
		}
	}
	if src.File != "" {
		data, err := os.ReadFile(src.File)
		switch {
		case err == nil:
			key, err := ParseKey(strings.TrimSpace(string(data)))
			if err != nil {
				return nil, fmt.Errorf("invalid key in %s: %w", src.File, err)
			}
			return key, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
	}
	return nil, core.ErrKeyNotConfigured
}

// Load resolves a key from src and builds an AES-GCM Encrypter.
func Load(src Source) (*AESGCM, error) {
	key, err := LoadKey(src)
	if err != nil {
		return nil, err
	}
	return NewAESGCM(key)
}

// ParseKey decodes a base64 key and checks its length.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: got %d bytes, want %d", len(key), KeySize)
	}
	return key, nil
}

// GenerateKey returns a new random key, base64 encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
