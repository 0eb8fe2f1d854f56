// Package secret encrypts credentials at rest with AES-256-GCM.
//
// Ciphertexts are URL-safe base64 of a version byte, a random nonce and
// the sealed payload. Every call draws a fresh nonce, so encrypting the
// same plaintext twice yields different ciphertexts.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes.
const KeySize = 32

const version byte = 1

// ErrMalformed is returned by Decrypt for input it cannot parse or
// authenticate.
var ErrMalformed = errors.New("malformed ciphertext")

// Encryptor seals and opens secrets with a fixed key.
// An Encryptor is safe for concurrent use.
type Encryptor struct {
	gcm cipher.AEAD
}

// NewEncryptor creates an Encryptor from a hex-encoded 32-byte key.
func NewEncryptor(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	return NewEncryptorFromKey(key)
}

// NewEncryptorFromKey creates an Encryptor from raw key bytes.
func NewEncryptorFromKey(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Encryptor{gcm: gcm}, nil
}

// GenerateKey returns a random hex-encoded key suitable for NewEncryptor.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Encrypt seals plaintext and returns the encoded ciphertext.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	buf := make([]byte, 1+e.gcm.NonceSize(), 1+e.gcm.NonceSize()+len(plaintext)+e.gcm.Overhead())
	buf[0] = version
	nonce := buf[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := e.gcm.Seal(buf, nonce, []byte(plaintext), []byte{version})
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt with the same key.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformed
	}
	nonceSize := e.gcm.NonceSize()
	if len(raw) < 1+nonceSize+e.gcm.Overhead() || raw[0] != version {
		return "", ErrMalformed
	}
	nonce, sealed := raw[1:1+nonceSize], raw[1+nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, sealed, raw[:1])
	if err != nil {
		return "", ErrMalformed
	}
	return string(plaintext), nil
}
