package secure_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehchaan-id/pehchaan-compliance/internal/secure"
)

func TestNewCipher_KeySize(t *testing.T) {
	_, err := secure.NewCipher([]byte("too-short"))
	assert.ErrorIs(t, err, secure.ErrInvalidKeySize)

	_, err = secure.NewCipher([]byte(strings.Repeat("k", 32)))
	assert.NoError(t, err)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	c, err := secure.NewCipher([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)

	plaintext := []byte(`{"profile":{"displayName":"Asha"}}`)

	sealed, err := c.Seal(plaintext)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, plaintext), "ciphertext must not contain plaintext")

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSeal_NoncesDiffer(t *testing.T) {
	c, err := secure.NewCipher([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)

	a, err := c.Seal([]byte("same input"))
	require.NoError(t, err)
	b, err := c.Seal([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "sealing twice must produce distinct ciphertexts")
}

func TestOpen_WrongKeyFails(t *testing.T) {
	c1, err := secure.NewCipher([]byte(strings.Repeat("a", 32)))
	require.NoError(t, err)
	c2, err := secure.NewCipher([]byte(strings.Repeat("b", 32)))
	require.NoError(t, err)

	sealed, err := c1.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = c2.Open(sealed)
	assert.Error(t, err)
}

func TestOpen_TruncatedCiphertext(t *testing.T) {
	c, err := secure.NewCipher([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)

	_, err = c.Open([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, secure.ErrCiphertextShort)
}
