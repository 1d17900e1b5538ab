// Package crypto seals the persisted session snapshot at rest.
//
// The snapshot contains a bearer credential, so the encrypted file backend
// runs it through ChaCha20-Poly1305 with a randomly generated key kept in a
// local key file. This protects against casual reads of the snapshot file,
// not against an attacker who can read the key file too.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the ChaCha20-Poly1305 key length in bytes.
const KeySize = chacha20poly1305.KeySize

var (
	ErrInvalidKey        = errors.New("crypto: invalid key length")
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")
	ErrDecryptionFailed  = errors.New("crypto: decryption failed")
)

// GenerateKey generates a random ChaCha20-Poly1305 key (32 bytes).
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return key, nil
}

// LoadOrCreateKey reads the key file at path, generating and writing a fresh
// key (0600) if none exists yet.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path) //nolint:gosec // path is the client's own key file
	if err == nil {
		if len(key) != KeySize {
			return nil, ErrInvalidKey
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("crypto: read key file: %w", err)
	}

	key, err = GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("crypto: write key file: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext with the given key. The returned blob is
// nonce || ciphertext.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal.
func Open(key, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
