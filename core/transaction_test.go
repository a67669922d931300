package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/crypto"
)

func TestTransactionSignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	tx, err := NewTransaction("test", TxGameOver, pub.Hex(), 3, 0, GameOverPayload{Score: 60})
	require.NoError(t, err)
	tx.Sign(priv)
	assert.Equal(t, tx.Hash(), tx.ID)
	require.NoError(t, tx.Verify())

	tx.Payload = []byte(`{"score":6000}`)
	assert.Error(t, tx.Verify(), "tampered payload must not verify")
}

func TestNewTransactionNilPayload(t *testing.T) {
	tx, err := NewTransaction("test", TxGameStart, "from", 0, 0, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(tx.Payload))
}

func TestVerifyRejectsBadFrom(t *testing.T) {
	tx, err := NewTransaction("test", TxGameStart, "not-hex", 0, 0, nil)
	require.NoError(t, err)
	assert.Error(t, tx.Verify())
	tx.From = ""
	assert.Error(t, tx.Verify())
}
