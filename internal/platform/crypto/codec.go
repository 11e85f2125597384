package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const kdfIterations = 100_000

var errCiphertextTooShort = errors.New("ciphertext too short")

// Codec encrypts message content at rest with AES-256-GCM under a key
// derived from the configured secret and salt (PBKDF2-SHA256, 100k
// iterations). Implements contracts.ContentCodec.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(secret, salt string) (*Codec, error) {
	key := pbkdf2.Key([]byte(secret), []byte(salt), kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

func (c *Codec) Encode(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decode(blob string) (string, error) {
	sealed, err := base64.URLEncoding.DecodeString(blob)
	if err != nil {
		return "", err
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", errCiphertextTooShort
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
