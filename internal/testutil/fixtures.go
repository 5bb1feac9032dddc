package testutil

import (
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/crypt"
)

// NewEncrypter returns an encrypter with a fresh random key.
func NewEncrypter(t testing.TB) *crypt.AESGCM {
	t.Helper()
	key, err := crypt.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	raw, err := crypt.ParseKey(key)
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	enc, err := crypt.NewAESGCM(raw)
	if err != nil {
		t.Fatalf("failed to create encrypter: %v", err)
	}
	return enc
}

// SQLitePath returns a database file path inside the test's temp dir.
func SQLitePath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}
