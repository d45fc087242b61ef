// Package crypt seals small secrets at rest with AES-256-GCM.
//
// Sealed data is base64url(nonce || ciphertext || tag), safe to write to a
// file or a Redis field as text.
//
//	s, err := crypt.New(config.TokenKey())
//	sealed, err := s.Seal(raw)
//	raw, err = s.Open(sealed)
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrOpen is returned when sealed data is malformed, was sealed with another
// key, or was tampered with.
var ErrOpen = errors.New("crypt: cannot open sealed data")

var enc = base64.URLEncoding

// Sealer encrypts and authenticates with a key derived from a passphrase.
type Sealer struct {
	aead cipher.AEAD
}

// New derives an AES-256 key from secret with SHA-256.
func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("crypt: empty secret")
	}
	k := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plain under a fresh random nonce.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypt: nonce: %w", err)
	}
	raw := s.aead.Seal(nonce, nonce, plain, nil)
	out := make([]byte, enc.EncodedLen(len(raw)))
	enc.Encode(out, raw)
	return out, nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	raw := make([]byte, enc.DecodedLen(len(sealed)))
	n, err := enc.Decode(raw, sealed)
	if err != nil {
		return nil, ErrOpen
	}
	raw = raw[:n]
	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return nil, ErrOpen
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}
