package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.Len(t, pub.Hex(), 64)
	assert.Equal(t, pub, priv.Public())

	gotPub, err := PubKeyFromHex(pub.Hex())
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)

	gotPriv, err := PrivKeyFromHex(priv.Hex())
	require.NoError(t, err)
	assert.Equal(t, priv, gotPriv)

	_, err = PubKeyFromHex("abcd")
	assert.Error(t, err)
	_, err = PubKeyFromHex("zz")
	assert.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	sig := Sign(priv, []byte("game over"))
	require.NoError(t, Verify(pub, []byte("game over"), sig))
	assert.Error(t, Verify(pub, []byte("game on"), sig))

	_, other, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.Error(t, Verify(other, []byte("game over"), sig))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "operator", Short("operator"))
	assert.Equal(t, "abcdef…6789", Short("abcdef0123456789"))
}
