package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
)

func TestKeystoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.key")
	w, err := Generate("test")
	require.NoError(t, err)
	require.NoError(t, SaveKey(path, "hunter2", w.PrivKey()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	opened, err := Open(path, "hunter2", "test")
	require.NoError(t, err)
	assert.Equal(t, w.PubKey(), opened.PubKey())

	_, err = LoadKey(path, "hunter3")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestKeystoreDetectsSwappedPubKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.key")
	w, err := Generate("test")
	require.NoError(t, err)
	other, err := Generate("test")
	require.NoError(t, err)
	require.NoError(t, SaveKey(path, "", w.PrivKey()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var ks keystoreFile
	require.NoError(t, json.Unmarshal(raw, &ks))
	ks.PubKey = other.PubKey()
	raw, err = json.Marshal(ks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	_, err = LoadKey(path, "")
	assert.ErrorContains(t, err, "public key mismatch")
}

func TestWalletBuildsSignedTxs(t *testing.T) {
	w, err := Generate("test")
	require.NoError(t, err)

	tx, err := w.BuySnake(3, 30, 7)
	require.NoError(t, err)
	require.NoError(t, tx.Verify())
	assert.Equal(t, core.TxBuySnake, tx.Type)
	assert.Equal(t, "test", tx.ChainID)
	assert.Equal(t, uint64(7), tx.Nonce)
	assert.Equal(t, uint64(30), tx.Value)
	assert.JSONEq(t, `{"amount":3}`, string(tx.Payload))

	tx, err = w.SuperPetNftClaim([]uint64{4, 5}, 1, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token_ids":[4,5]}`, string(tx.Payload))

	tx, err = w.SnakeNftClaim(0, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(tx.Payload))
}
