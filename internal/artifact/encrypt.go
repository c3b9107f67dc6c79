// internal/artifact/encrypt.go
// Package artifact seals refined output artifacts before publication.
// Published artifacts leave the trust boundary of the pipeline, so they are
// always encrypted; the key material is supplied through configuration.
package artifact

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer encrypts and decrypts artifact payloads with XChaCha20-Poly1305.
type Sealer struct {
	key []byte
}

// NewSealer derives a sealing key from arbitrary key material.
// The material is hashed so operators can supply passphrases of any length.
func NewSealer(keyMaterial string) (*Sealer, error) {
	if keyMaterial == "" {
		return nil, fmt.Errorf("empty encryption key material")
	}
	sum := sha256.Sum256([]byte(keyMaterial))
	return &Sealer{key: sum[:]}, nil
}

// Seal encrypts a payload. The random nonce is prepended to the ciphertext so
// the output is self-contained.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed payload too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plaintext, nil
}
