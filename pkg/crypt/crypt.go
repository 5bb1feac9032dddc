// Package crypt provides field-level encryption for encrypted columns.
//
// Ciphertext is stored as text: the prefix "ENC:" followed by the standard
// base64 encoding of nonce, sealed payload and authentication tag
// (AES-256-GCM, 12-byte nonce, 16-byte tag).
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Prefix marks a stored value as ciphertext.
const Prefix = "ENC:"

// KeySize is the required key length in bytes.
const KeySize = 32

var (
	// ErrMalformed is returned for ciphertext that cannot be parsed.
	ErrMalformed = errors.New("malformed ciphertext")
	// ErrAuthentication is returned when the tag does not verify, usually
	// because the value was written with a different key.
	ErrAuthentication = errors.New("ciphertext authentication failed")
)

// Encrypter encrypts and decrypts single column values.
type Encrypter interface {
	EncryptField(plaintext string) (string, error)
	DecryptField(ciphertext string) (string, error)
}

// AESGCM is an Encrypter backed by AES-256-GCM.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates an Encrypter from a 32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: got %d bytes, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// EncryptField seals plaintext under a fresh random nonce.
func (a *AESGCM) EncryptField(plaintext string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptField opens a value produced by EncryptField.
func (a *AESGCM) DecryptField(ciphertext string) (string, error) {
	if !IsEncrypted(ciphertext) {
		return "", ErrMalformed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, Prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ns := a.aead.NonceSize()
	if len(raw) < ns+a.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := a.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plain), nil
}

// IsEncrypted reports whether s carries the ciphertext prefix.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

var _ Encrypter = (*AESGCM)(nil)
