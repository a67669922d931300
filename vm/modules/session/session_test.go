package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/internal/enginetest"
)

func TestEndToEndScenario(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)

	e.MustApply(alice, core.TxSnakeAirdrop, 0, nil)
	assert.Equal(t, uint64(10), e.Data(alice).Snake)

	e.BuyCredits(alice, 1)
	d := e.Data(alice)
	assert.Equal(t, uint64(1), d.GameCredits)
	assert.Equal(t, uint64(5), d.Snake)

	e.MustApply(alice, core.TxGameStart, 0, nil)
	d = e.Data(alice)
	assert.Zero(t, d.GameCredits)
	assert.True(t, d.GameStarted)

	rcpt := e.MustApply(alice, core.TxGameOver, 0, core.GameOverPayload{Score: 60})
	d = e.Data(alice)
	assert.Equal(t, uint64(60), d.FruitToClaim)
	assert.False(t, d.GameStarted)
	assert.Equal(t, uint64(1), d.Stats.GamesPlayed)
	assert.Equal(t, uint64(60), d.Stats.BestScore)
	assert.Equal(t, uint64(1), d.SnakeNftsToClaim)
	assert.Equal(t, []events.EventType{
		events.EventSnakeNftUnlocked,
		events.EventGameOver,
		events.EventTxExecuted,
	}, enginetest.Events(rcpt))

	e.MustApply(alice, core.TxFruitClaim, 0, nil)
	d = e.Data(alice)
	assert.Equal(t, uint64(60), d.Fruit)
	assert.Zero(t, d.FruitToClaim)
}

func TestSingleInFlightGame(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(enginetest.Ether)
	e.BuySnake(alice, 10)
	e.BuyCredits(alice, 2)

	e.MustApply(alice, core.TxGameStart, 0, nil)
	_, err := e.Apply(alice, core.TxGameStart, 0, nil)
	assert.ErrorIs(t, err, core.ErrGameAlreadyStarted)
	assert.Equal(t, uint64(1), e.Data(alice).GameCredits, "one credit per successful start")

	e.MustApply(alice, core.TxGameOver, 0, core.GameOverPayload{Score: 1})
	_, err = e.Apply(alice, core.TxGameOver, 0, core.GameOverPayload{Score: 1})
	assert.ErrorIs(t, err, core.ErrGameNotStarted)
}

func TestGameStartWithoutCredits(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)
	_, err := e.Apply(alice, core.TxGameStart, 0, nil)
	assert.ErrorIs(t, err, core.ErrNoGameCredits)
	assert.False(t, e.Data(alice).GameStarted)
}

func TestFruitAccumulates(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(enginetest.Ether)
	scores := []uint64{12, 0, 49, 7}
	e.BuySnake(alice, uint64(len(scores))*5)
	e.BuyCredits(alice, uint64(len(scores)))

	var sum uint64
	for _, s := range scores {
		e.Play(alice, s)
		sum += s
	}
	d := e.Data(alice)
	assert.Equal(t, sum, d.FruitToClaim)
	assert.Equal(t, uint64(len(scores)), d.Stats.GamesPlayed)
	assert.Equal(t, uint64(7), d.Stats.LastScore)
	assert.Equal(t, uint64(49), d.Stats.BestScore)
	assert.Zero(t, d.SnakeNftsToClaim, "no score reached the threshold")

	e.MustApply(alice, core.TxFruitClaim, 0, nil)
	d = e.Data(alice)
	assert.Equal(t, sum, d.Fruit)
	assert.Equal(t, sum, d.Stats.FruitsCollected)
	assert.Zero(t, d.FruitToClaim)

	_, err := e.Apply(alice, core.TxFruitClaim, 0, nil)
	assert.ErrorIs(t, err, core.ErrNoFruitToClaim)
}

func TestSnakeNftCap(t *testing.T) {
	e := enginetest.New(t, func(p *core.Params) {
		p.MaxSnakeNfts = 2
		p.SnakeNftFee = 10
	})
	alice := e.Player(enginetest.Ether)
	e.BuySnake(alice, 25)
	e.BuyCredits(alice, 5)

	e.Play(alice, 50)
	e.Play(alice, 50)
	e.MustApply(alice, core.TxFruitClaim, 0, nil)
	e.MustApply(alice, core.TxSnakeNftClaim, 0, core.SnakeNftClaimPayload{})
	d := e.Data(alice)
	assert.Equal(t, uint64(2), d.Stats.SnakeNftsAmount)
	assert.Zero(t, d.SnakeNftsToClaim)

	rcpt := e.Play(alice, 500)
	assert.NotNil(t, enginetest.Find(rcpt, events.EventMaxSnakeNfts))
	assert.Nil(t, enginetest.Find(rcpt, events.EventSnakeNftUnlocked))
	assert.Zero(t, e.Data(alice).SnakeNftsToClaim)
}

func TestSnakeNftCapCountsPending(t *testing.T) {
	e := enginetest.New(t, func(p *core.Params) { p.MaxSnakeNfts = 1 })
	alice := e.Player(enginetest.Ether)
	e.BuySnake(alice, 10)
	e.BuyCredits(alice, 2)

	e.Play(alice, 80)
	rcpt := e.Play(alice, 80)
	assert.NotNil(t, enginetest.Find(rcpt, events.EventMaxSnakeNfts))
	assert.Equal(t, uint64(1), e.Data(alice).SnakeNftsToClaim)
}

func TestRoundFairness(t *testing.T) {
	e := enginetest.New(t)
	free := e.Player(enginetest.Ether)
	paid := e.Player(enginetest.Ether)

	e.MustApply(free, core.TxSnakeAirdrop, 0, nil)
	e.BuyCredits(free, 2)
	e.Play(free, 900)
	e.Play(free, 950)

	r, err := e.Exec.Round(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.GamesPlayed)
	assert.Empty(t, r.BestPlayer, "airdropped games never take the record")
	assert.Zero(t, r.HighestScore)

	e.BuySnake(paid, 5)
	e.BuyCredits(paid, 1)
	rcpt := e.Play(paid, 30)
	assert.NotNil(t, enginetest.Find(rcpt, events.EventNewRoundRecord))

	r, err = e.Exec.Round(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), r.GamesPlayed)
	assert.Equal(t, paid.PubKey(), r.BestPlayer)
	assert.Equal(t, uint64(30), r.HighestScore)

	stats, err := e.Exec.PlayerStats(free.PubKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(950), stats.BestScore, "free games still earn rewards and stats")
}

func TestPaidCreditsAfterFreeOnes(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(enginetest.Ether)
	e.MustApply(alice, core.TxSnakeAirdrop, 0, nil)
	e.BuySnake(alice, 5)
	e.BuyCredits(alice, 3)

	for i, want := range []bool{false, false, true} {
		rcpt := e.MustApply(alice, core.TxGameStart, 0, nil)
		ev := enginetest.Find(rcpt, events.EventGameStarted)
		require.NotNil(t, ev)
		assert.Equal(t, want, ev.Data["paid"], "game %d", i)
		e.MustApply(alice, core.TxGameOver, 0, core.GameOverPayload{Score: uint64(i)})
	}
}
