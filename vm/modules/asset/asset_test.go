package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/internal/enginetest"
	"github.com/tolelom/snakegame/ledger"
	"github.com/tolelom/snakegame/wallet"
)

func newEngine(t *testing.T) *enginetest.Engine {
	return enginetest.New(t, func(p *core.Params) {
		p.SnakeNftsRequired = 3
		p.MaxSuperNfts = 1
	})
}

// giveSnakeNfts mints n Snake NFTs straight into w's wallet.
func giveSnakeNfts(t *testing.T, e *enginetest.Engine, w *wallet.Wallet, n int) {
	t.Helper()
	coll := ledger.NewNftCollection(e.State, core.CollectionSnakeNft, nil)
	for i := 0; i < n; i++ {
		_, err := coll.Mint(w.PubKey(), 0)
		require.NoError(t, err)
	}
	require.NoError(t, e.State.Commit())
}

func TestCheckSuperNftClaim(t *testing.T) {
	e := newEngine(t)
	alice := e.Player(enginetest.Ether)
	giveSnakeNfts(t, e, alice, 2)

	rcpt := e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)
	assert.Nil(t, enginetest.Find(rcpt, events.EventSuperNftUnlocked))
	assert.False(t, e.Data(alice).SuperNftClaimable)

	giveSnakeNfts(t, e, alice, 1)
	rcpt = e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)
	assert.NotNil(t, enginetest.Find(rcpt, events.EventSuperNftUnlocked))
	assert.True(t, e.Data(alice).SuperNftClaimable)

	e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)
	assert.True(t, e.Data(alice).SuperNftClaimable, "check is idempotent")
}

func TestSuperPetNftClaim(t *testing.T) {
	e := newEngine(t)
	fee := e.Exec.Params().SuperNftFee
	alice := e.Player(enginetest.Ether)
	giveSnakeNfts(t, e, alice, 4)

	_, err := e.Apply(alice, core.TxSuperPetNftClaim, fee, nil)
	assert.ErrorIs(t, err, core.ErrNoSuperNftToClaim)

	e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)
	_, err = e.Apply(alice, core.TxSuperPetNftClaim, fee-1, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientPayment)

	rcpt := e.MustApply(alice, core.TxSuperPetNftClaim, fee, nil)
	ev := enginetest.Find(rcpt, events.EventSuperPetNftClaimed)
	require.NotNil(t, ev)
	assert.Equal(t, []uint64{1, 2, 3}, ev.Data["burned"], "lowest ids burned by default")

	d := e.Data(alice)
	assert.Equal(t, uint64(1), d.SnakeNfts)
	assert.Equal(t, uint64(1), d.SuperPetNfts)
	assert.Equal(t, uint64(1), d.Stats.SuperNftsAmount)
	assert.False(t, d.SuperNftClaimable)
	assert.Equal(t, uint64(4), d.CreditPrice, "super pet discounts credits")
	assert.Equal(t, fee, e.Pot())

	giveSnakeNfts(t, e, alice, 3)
	rcpt = e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)
	assert.NotNil(t, enginetest.Find(rcpt, events.EventMaxSuperNfts))
	assert.False(t, e.Data(alice).SuperNftClaimable)
}

func TestSuperPetNftClaimNamedTokens(t *testing.T) {
	e := newEngine(t)
	fee := e.Exec.Params().SuperNftFee
	alice := e.Player(enginetest.Ether)
	bob := e.Player(0)
	giveSnakeNfts(t, e, alice, 4)
	giveSnakeNfts(t, e, bob, 1)
	e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)

	for _, ids := range [][]uint64{{2, 3}, {2, 2, 3}} {
		_, err := e.Apply(alice, core.TxSuperPetNftClaim, fee, core.SuperPetNftClaimPayload{TokenIDs: ids})
		assert.ErrorIs(t, err, core.ErrIncorrectAmount, "%v", ids)
	}
	_, err := e.Apply(alice, core.TxSuperPetNftClaim, fee, core.SuperPetNftClaimPayload{TokenIDs: []uint64{2, 3, 5}})
	assert.ErrorIs(t, err, core.ErrUnauthorized, "token 5 belongs to bob")

	e.MustApply(alice, core.TxSuperPetNftClaim, fee, core.SuperPetNftClaimPayload{TokenIDs: []uint64{4, 2, 3}})
	nfts, err := e.Exec.Nfts(core.CollectionSnakeNft, alice.PubKey())
	require.NoError(t, err)
	require.Len(t, nfts, 1)
	assert.Equal(t, uint64(1), nfts[0].ID)
}

func TestSuperPetNftClaimRechecksBalance(t *testing.T) {
	e := newEngine(t)
	fee := e.Exec.Params().SuperNftFee
	alice := e.Player(enginetest.Ether)
	giveSnakeNfts(t, e, alice, 3)
	e.MustApply(alice, core.TxCheckSuperNftClaim, 0, nil)

	require.NoError(t, ledger.NewNftCollection(e.State, core.CollectionSnakeNft, nil).Burn(alice.PubKey(), 1))
	require.NoError(t, e.State.Commit())

	_, err := e.Apply(alice, core.TxSuperPetNftClaim, fee, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)
	assert.Equal(t, enginetest.Ether, e.Balance(alice), "fee returned with the rollback")
	assert.True(t, e.Data(alice).SuperNftClaimable)
}
