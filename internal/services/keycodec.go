package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// KeyCodec generates opaque plaintext secrets and derives their lookup
// fingerprints. It performs no I/O.
type KeyCodec struct {
	prefix      string
	secretBytes int
}

func NewKeyCodec(prefix string, secretBytes int) *KeyCodec {
	if secretBytes <= 0 {
		secretBytes = 24
	}
	return &KeyCodec{
		prefix:      prefix,
		secretBytes: secretBytes,
	}
}

// Generate draws fresh cryptographically random bytes and returns the full
// plaintext secret plus its last four characters for display. The secret is
// never persisted; callers hash it with Fingerprint before storage.
func (c *KeyCodec) Generate() (secret string, last4 string, err error) {
	raw := make([]byte, c.secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	secret = c.prefix + base64.RawURLEncoding.EncodeToString(raw)
	return secret, secret[len(secret)-4:], nil
}

// Fingerprint returns the deterministic one-way digest used to look a key
// up without storing the secret itself.
func (c *KeyCodec) Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Mask renders the display-safe form of an issued key: prefix, ellipsis,
// last four characters.
func (c *KeyCodec) Mask(last4 string) string {
	return c.prefix + "..." + last4
}
