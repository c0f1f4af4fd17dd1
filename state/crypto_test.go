package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyDerivesStablePubkey(t *testing.T) {
	key := GenerateKey()
	assert.Equal(t, key.Pubkey(), key.Pubkey())

	other := GenerateKey()
	assert.NotEqual(t, key.Pubkey(), other.Pubkey())
}

func TestKeyTextRoundTrip(t *testing.T) {
	key := GenerateKey()

	text, err := key.MarshalText()
	require.NoError(t, err)
	var decoded OsPrivateKey
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, key, decoded)

	pubText, err := key.Pubkey().MarshalText()
	require.NoError(t, err)
	var decodedPub OsPublicKey
	require.NoError(t, decodedPub.UnmarshalText(pubText))
	assert.Equal(t, key.Pubkey(), decodedPub)
}

func TestUnmarshalRejectsWrongLength(t *testing.T) {
	var key OsPrivateKey
	assert.Error(t, key.UnmarshalText([]byte("dG9vIHNob3J0")))
	var pub OsPublicKey
	assert.Error(t, pub.UnmarshalText([]byte("dG9vIHNob3J0")))
}
