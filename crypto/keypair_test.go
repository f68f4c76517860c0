package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	kp1, err := GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := GenerateKeyPair()
	require.NoError(t, err)

	assert.False(t, kp1.Public.IsZero())
	assert.NotEqual(t, kp1.Public, kp2.Public)
	assert.NotEqual(t, kp1.Private, kp2.Private)
}

func TestFromSecretKeyDerivesPublicKey(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	restored, err := FromSecretKey(kp.Private)
	require.NoError(t, err)
	assert.Equal(t, kp.Public, restored.Public)
	assert.Equal(t, kp.Private, restored.Private)
}

func TestFromSecretKeyRejectsZeroKey(t *testing.T) {
	_, err := FromSecretKey([32]byte{})
	assert.ErrorIs(t, err, ErrInvalidSecretKey)
}

func TestParsePublicKey(t *testing.T) {
	pk := testKey()

	parsed, err := ParsePublicKey(pk.String())
	require.NoError(t, err)
	assert.Equal(t, pk, parsed)

	parsed, err = ParsePublicKey(strings.ToLower(pk.String()))
	require.NoError(t, err)
	assert.Equal(t, pk, parsed)

	_, err = ParsePublicKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = ParsePublicKey(strings.Repeat("g", 64))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestWipeClearsPrivateKey(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	public := kp.Public

	kp.Wipe()
	assert.True(t, isZeroKey(kp.Private))
	assert.Equal(t, public, kp.Public, "public half is kept")

	var nilPair *KeyPair
	assert.NotPanics(t, nilPair.Wipe)
}
