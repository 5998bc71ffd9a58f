package x25519

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedSecretAgreement(t *testing.T) {
	pubA, privA, err := GenerateKey()
	require.NoError(t, err)
	pubB, privB, err := GenerateKey()
	require.NoError(t, err)

	secretA, err := privA.SharedSecret(pubB)
	require.NoError(t, err)
	secretB, err := privB.SharedSecret(pubA)
	require.NoError(t, err)
	assert.Equal(t, secretA, secretB)
	assert.Len(t, secretA, KeyLength)
}

func TestSerializeRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKey()
	require.NoError(t, err)

	pub2, err := NewPublicKey(pub.Bytes())
	require.NoError(t, err)
	assert.True(t, pub.Equal(pub2))

	priv2, err := NewPrivateKey(priv.Bytes())
	require.NoError(t, err)
	assert.True(t, priv2.Public().Equal(pub))
}

func TestAnonymousBox(t *testing.T) {
	pub, priv, err := GenerateKey()
	require.NoError(t, err)

	plaintext := []byte("wrap this secret")
	sealed, err := pub.EncryptAnonymous(plaintext)
	require.NoError(t, err)

	opened, err := priv.DecryptAnonymous(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)

	sealed[0] ^= 1
	_, err = priv.DecryptAnonymous(sealed)
	assert.Error(t, err)
}

func TestBadLengths(t *testing.T) {
	_, err := NewPublicKey(make([]byte, 16))
	assert.Error(t, err)
	_, err = NewPrivateKey(make([]byte, 31))
	assert.Error(t, err)
}
