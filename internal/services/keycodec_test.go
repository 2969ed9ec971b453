package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCodecGenerate(t *testing.T) {
	codec := NewKeyCodec("sk_live_", 24)

	secret, last4, err := codec.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, "sk_live_"))
	assert.Equal(t, secret[len(secret)-4:], last4)
	assert.Len(t, last4, 4)

	// 24 random bytes encode to 32 base64 characters
	assert.Len(t, secret, len("sk_live_")+32)
}

func TestKeyCodecGenerateUnique(t *testing.T) {
	codec := NewKeyCodec("sk_live_", 24)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		secret, _, err := codec.Generate()
		require.NoError(t, err)

		_, dup := seen[secret]
		require.False(t, dup, "generated a duplicate secret")
		seen[secret] = struct{}{}
	}
}

func TestKeyCodecFingerprint(t *testing.T) {
	codec := NewKeyCodec("sk_live_", 24)

	fp := codec.Fingerprint("sk_live_abc123")

	// Deterministic, hex-encoded sha256
	assert.Equal(t, fp, codec.Fingerprint("sk_live_abc123"))
	assert.Len(t, fp, 64)
	assert.NotEqual(t, fp, codec.Fingerprint("sk_live_abc124"))
}

func TestKeyCodecMask(t *testing.T) {
	codec := NewKeyCodec("sk_live_", 24)
	assert.Equal(t, "sk_live_...WXYZ", codec.Mask("WXYZ"))
}

func TestKeyCodecDefaultsSecretBytes(t *testing.T) {
	codec := NewKeyCodec("sk_live_", 0)

	secret, _, err := codec.Generate()
	require.NoError(t, err)
	assert.Len(t, secret, len("sk_live_")+32)
}
