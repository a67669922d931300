package rewards_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/internal/enginetest"
	"github.com/tolelom/snakegame/ledger"
	"github.com/tolelom/snakegame/vm/modules/rewards"
)

func TestAccrue(t *testing.T) {
	p := &core.Player{}
	require.NoError(t, rewards.Accrue(p, 40))
	require.NoError(t, rewards.Accrue(p, 10))
	assert.Equal(t, uint64(50), p.FruitToClaim)
	assert.Equal(t, uint64(2), p.Stats.GamesPlayed)
	assert.Equal(t, uint64(10), p.Stats.LastScore)
	assert.Equal(t, uint64(40), p.Stats.BestScore)

	p.FruitToClaim = ^uint64(0)
	assert.ErrorIs(t, rewards.Accrue(p, 1), core.ErrOverflow)
}

func TestSnakeNftClaim(t *testing.T) {
	e := enginetest.New(t, func(p *core.Params) {
		p.SnakeNftFee = 60
		p.SnakeNftURIs = []string{"ipfs://snake/1", "ipfs://snake/2"}
	})
	alice := e.Player(enginetest.Ether)
	e.BuySnake(alice, 15)
	e.BuyCredits(alice, 3)
	for i := 0; i < 3; i++ {
		e.Play(alice, 50)
	}
	e.MustApply(alice, core.TxFruitClaim, 0, nil)
	require.Equal(t, uint64(3), e.Data(alice).SnakeNftsToClaim)
	require.Equal(t, uint64(150), e.Data(alice).Fruit)

	_, err := e.Apply(alice, core.TxSnakeNftClaim, 0, core.SnakeNftClaimPayload{Amount: 4})
	assert.ErrorIs(t, err, core.ErrIncorrectAmount)

	rcpt := e.MustApply(alice, core.TxSnakeNftClaim, 0, core.SnakeNftClaimPayload{Amount: 2})
	ev := enginetest.Find(rcpt, events.EventSnakeNftClaimed)
	require.NotNil(t, ev)
	assert.Equal(t, []uint64{1, 2}, ev.Data["token_ids"])
	d := e.Data(alice)
	assert.Equal(t, uint64(1), d.SnakeNftsToClaim)
	assert.Equal(t, uint64(2), d.Stats.SnakeNftsAmount)
	assert.Equal(t, uint64(2), d.SnakeNfts)
	assert.Equal(t, uint64(30), d.Fruit)

	nfts, err := e.Exec.Nfts(core.CollectionSnakeNft, alice.PubKey())
	require.NoError(t, err)
	require.Len(t, nfts, 2)
	assert.Equal(t, "ipfs://snake/2", nfts[1].URI)
	assert.Equal(t, e.Now.Unix(), nfts[0].MintedAt)

	_, err = e.Apply(alice, core.TxSnakeNftClaim, 0, core.SnakeNftClaimPayload{})
	assert.ErrorIs(t, err, core.ErrInsufficientBalance, "fee per NFT is burned from FRUIT")
	d = e.Data(alice)
	assert.Equal(t, uint64(1), d.SnakeNftsToClaim, "failed claim is rolled back")
	assert.Equal(t, uint64(30), d.Fruit)
}

func TestSnakeNftClaimAllOrNothing(t *testing.T) {
	e := enginetest.New(t, func(p *core.Params) { p.SnakeNftFee = 60 })
	alice := e.Player(enginetest.Ether)
	e.BuySnake(alice, 10)
	e.BuyCredits(alice, 2)
	e.Play(alice, 50)
	e.Play(alice, 50)
	e.MustApply(alice, core.TxFruitClaim, 0, nil)

	_, err := e.Apply(alice, core.TxSnakeNftClaim, 0, core.SnakeNftClaimPayload{})
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)
	d := e.Data(alice)
	assert.Zero(t, d.SnakeNfts, "first mint is rolled back with the second fee failure")
	assert.Equal(t, uint64(100), d.Fruit)
	assert.Equal(t, uint64(2), d.SnakeNftsToClaim)

	supply, err := ledger.NewToken(e.State, core.TokenFruit).TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), supply)
}

func TestSnakeNftClaimNothingPending(t *testing.T) {
	e := enginetest.New(t)
	_, err := e.Apply(e.Player(0), core.TxSnakeNftClaim, 0, nil)
	assert.ErrorIs(t, err, core.ErrNoSnakeNftsToClaim)
}
