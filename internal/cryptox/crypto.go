// Package cryptox implements the content cipher: authenticated encryption
// of file payloads with a single process-wide key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

// ErrDecryption is returned for malformed or tampered ciphertext and for
// ciphertext produced under a different key.
var ErrDecryption = errors.New("decryption failed")

// ErrNoSecret is returned by NewCipher when the operator secret is empty.
// The server treats it as fatal at startup.
var ErrNoSecret = errors.New("encryption secret is not set")

// DeriveKey hashes the operator-supplied secret into a fixed-length
// AES-256 key. The derivation is deliberately one-way and deterministic:
// the same secret always yields the same key, and the key never leaves
// the process.
func DeriveKey(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// Cipher encrypts and decrypts byte payloads with AES-256-GCM under one
// key derived at construction. There are no per-file keys and no rotation;
// the key lives for the process lifetime.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the process key from secret and prepares the AEAD.
// An empty secret yields ErrNoSecret.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	key := DeriveKey(secret)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns nonce||ciphertext. The nonce is
// random per call and embedded in the output, so callers hold a single
// opaque byte string.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt. Any tampering with the nonce,
// the ciphertext, or the auth tag, and any key mismatch, returns
// ErrDecryption; altered plaintext is never returned.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(data) < ns {
		return nil, ErrDecryption
	}

	nonce, ciphertext := data[:ns], data[ns:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}

	return plaintext, nil
}
