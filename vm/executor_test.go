package vm_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/internal/enginetest"
	"github.com/tolelom/snakegame/internal/testutil"
	"github.com/tolelom/snakegame/vm"
	"github.com/tolelom/snakegame/wallet"
)

func TestNonceReplay(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)

	tx, err := alice.SnakeAirdrop(0)
	require.NoError(t, err)
	_, err = e.Exec.ExecuteTx(tx)
	require.NoError(t, err)

	_, err = e.Exec.ExecuteTx(tx)
	assert.ErrorIs(t, err, core.ErrInvalidNonce)

	acc, err := e.Exec.Account(alice.PubKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Nonce)
}

func TestPaymentToNonPayableRejected(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(enginetest.Ether)

	_, err := e.Apply(alice, core.TxGameStart, 5, nil)
	assert.ErrorIs(t, err, core.ErrNotPayable)
	assert.Equal(t, enginetest.Ether, e.Balance(alice))
	assert.Zero(t, e.Pot())

	acc, err := e.Exec.Account(alice.PubKey())
	require.NoError(t, err)
	assert.Zero(t, acc.Nonce, "rejected tx does not consume the nonce")
}

func TestRejectsForeignChainAndBadSignature(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)

	other := wallet.New(alice.PrivKey(), "another-chain")
	tx, err := other.SnakeAirdrop(0)
	require.NoError(t, err)
	_, err = e.Exec.ExecuteTx(tx)
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	tx, err = alice.SnakeAirdrop(0)
	require.NoError(t, err)
	tx.Nonce = 7
	_, err = e.Exec.ExecuteTx(tx)
	assert.Error(t, err)
	assert.Equal(t, "Internal", core.Kind(err), "signature failures carry no engine kind")
}

func TestUnknownTxType(t *testing.T) {
	e := enginetest.New(t)
	_, err := e.Apply(e.Player(0), core.TxType("mint_everything"), 0, nil)
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
}

func TestMalformedPayload(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)
	tx, err := alice.NewTx(core.TxGameOver, 0, 0, nil)
	require.NoError(t, err)
	tx.Payload = []byte(`{"score":"lots"}`)
	tx.Sign(alice.PrivKey())
	_, err = e.Exec.ExecuteTx(tx)
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
}

func TestCommitFailureRollsBackEverything(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)
	var published []events.Event
	e.Emitter.SubscribeAll(func(ev events.Event) { published = append(published, ev) })

	e.DB.FailWrites = true
	_, err := e.Apply(alice, core.TxSnakeAirdrop, 0, nil)
	require.ErrorIs(t, err, testutil.ErrBatchFailed)
	assert.ErrorIs(t, err, core.ErrCommitFailed)
	assert.Equal(t, "Internal", core.Kind(err))
	assert.Empty(t, published, "no events for an uncommitted tx")

	e.DB.FailWrites = false
	d := e.Data(alice)
	assert.False(t, d.SnakeAirdropped)
	assert.Zero(t, d.Snake)
	assert.Zero(t, d.Nonce)

	e.MustApply(alice, core.TxSnakeAirdrop, 0, nil)
	assert.Equal(t, uint64(10), e.Data(alice).Snake)
	require.NotEmpty(t, published)
	assert.Equal(t, events.EventTxExecuted, published[len(published)-1].Type)
}

func TestReceiptCarriesSequence(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)
	first := e.MustApply(alice, core.TxSnakeAirdrop, 0, nil)
	second := e.MustApply(alice, core.TxBuyCredits, 0, core.AmountPayload{Amount: 1})
	assert.Equal(t, first.Seq+1, second.Seq)
	for _, ev := range second.Events {
		assert.Equal(t, second.TxID, ev.TxID)
		assert.Equal(t, second.Seq, ev.Seq)
	}

	g, err := e.Exec.Global()
	require.NoError(t, err)
	assert.Equal(t, second.Seq, g.Sequence)
}

func TestConcurrentPlayersSerialize(t *testing.T) {
	e := enginetest.New(t)
	players := make([]*wallet.Wallet, 8)
	for i := range players {
		players[i] = e.Player(0)
		e.MustApply(players[i], core.TxSnakeAirdrop, 0, nil)
		e.BuyCredits(players[i], 2)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(players)*4)
	for _, p := range players {
		wg.Add(1)
		go func(w *wallet.Wallet) {
			defer wg.Done()
			for n := uint64(0); n < 2; n++ {
				nonce := 2 + n*2
				for _, build := range []func() (*core.Transaction, error){
					func() (*core.Transaction, error) { return w.GameStart(nonce) },
					func() (*core.Transaction, error) { return w.GameOver(10, nonce+1) },
				} {
					tx, err := build()
					if err == nil {
						_, err = e.Exec.ExecuteTx(tx)
					}
					if err != nil {
						errs <- err
					}
				}
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	r, err := e.Exec.Round(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(players)*2), r.GamesPlayed)
}

func TestGenesisIdempotent(t *testing.T) {
	state := testutil.NewStateDB()
	created, err := vm.InitGenesis(state, map[string]vm.GenesisAccount{"alice": {Balance: 5}}, 10)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = vm.InitGenesis(state, map[string]vm.GenesisAccount{"alice": {Balance: 99}}, 20)
	require.NoError(t, err)
	assert.False(t, created)

	acc, err := state.GetAccount("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), acc.Balance)
	r, err := state.GetRound(1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.StartedAt)
}

func TestGenesisRejectsEngineAlloc(t *testing.T) {
	_, err := vm.InitGenesis(testutil.NewStateDB(), map[string]vm.GenesisAccount{core.EngineAddress: {Balance: 1}}, 0)
	assert.Error(t, err)
}

func TestEveryTxTypeRegistered(t *testing.T) {
	e := enginetest.New(t)
	assert.Equal(t, []core.TxType{
		core.TxBuyCredits,
		core.TxBuySnake,
		core.TxCheckSuperNftClaim,
		core.TxFinishRound,
		core.TxFruitClaim,
		core.TxFruitToSnakeSwap,
		core.TxFund,
		core.TxGameOver,
		core.TxGameStart,
		core.TxSnakeAirdrop,
		core.TxSnakeNftClaim,
		core.TxSuperPetNftClaim,
		core.TxTransfer,
		core.TxWithdrawEth,
	}, e.Exec.TxTypes())
}

func TestStateRootFollowsCommits(t *testing.T) {
	e := enginetest.New(t)
	alice := e.Player(0)

	before, err := e.Exec.StateRoot()
	require.NoError(t, err)
	again, err := e.Exec.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, before, again, "reads do not move the root")

	rcpt := e.MustApply(alice, core.TxSnakeAirdrop, 0, nil)
	after, err := e.Exec.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, rcpt.Seq, after.Seq)
	assert.NotEqual(t, before.Root, after.Root)

	// A rejected transaction leaves the root alone.
	_, err = e.Apply(alice, core.TxSnakeAirdrop, 0, nil)
	require.ErrorIs(t, err, core.ErrAirdropClaimed)
	rejected, err := e.Exec.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, after, rejected)
}
