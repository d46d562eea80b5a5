// Package secret seals credentials (trading passwords, VPS passwords) before they are persisted.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const sealedPrefix = "aes-gcm-v1:"

// ErrMalformed is returned when a sealed value cannot be decoded.
var ErrMalformed = errors.New("secret: malformed sealed value")

// Sealer encrypts and decrypts short credential strings.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// AESGCM seals values with AES-256-GCM. The key is derived from the configured passphrase.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds a sealer from a passphrase. A base64 32-byte key is used as-is.
func NewAESGCM(passphrase string) (*AESGCM, error) {
	passphrase = strings.TrimSpace(passphrase)
	if passphrase == "" {
		return nil, errors.New("secret: empty encryption key")
	}
	key, err := base64.StdEncoding.DecodeString(passphrase)
	if err != nil || len(key) != 32 {
		sum := sha256.Sum256([]byte(passphrase))
		key = sum[:]
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secret: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secret: gcm: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Seal encrypts plain. Empty input stays empty.
func (s *AESGCM) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: nonce: %w", err)
	}
	ct := s.aead.Seal(nil, nonce, []byte(plain), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(append(nonce, ct...)), nil
}

// Open decrypts a value produced by Seal.
func (s *AESGCM) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", ErrMalformed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil || len(raw) < s.aead.NonceSize() {
		return "", ErrMalformed
	}
	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	pt, err := s.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secret: open: %w", err)
	}
	return string(pt), nil
}
