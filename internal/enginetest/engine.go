// Package enginetest assembles a fully registered executor over an in-memory
// store for tests that drive the engine through signed transactions.
package enginetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/internal/testutil"
	"github.com/tolelom/snakegame/storage"
	"github.com/tolelom/snakegame/vm"
	"github.com/tolelom/snakegame/wallet"

	// Register every VM module.
	_ "github.com/tolelom/snakegame/vm/modules/asset"
	_ "github.com/tolelom/snakegame/vm/modules/economy"
	_ "github.com/tolelom/snakegame/vm/modules/market"
	_ "github.com/tolelom/snakegame/vm/modules/rewards"
	_ "github.com/tolelom/snakegame/vm/modules/round"
	_ "github.com/tolelom/snakegame/vm/modules/session"
)

// ChainID is the chain every Engine runs.
const ChainID = "snakegame-test"

// Ether is one ether in native base units.
const Ether uint64 = 1_000_000_000

// Engine is an executor with its backing store, an operator and a
// controllable clock.
type Engine struct {
	t        *testing.T
	DB       *testutil.MemDB
	State    *storage.StateDB
	Emitter  *events.Emitter
	Exec     *vm.Executor
	Operator *wallet.Wallet
	Now      time.Time
}

// New builds an Engine running core.DefaultParams with a generated operator.
// mutate, when given, adjusts the params before the executor is created;
// the result must pass Params.Validate.
func New(t *testing.T, mutate ...func(p *core.Params)) *Engine {
	t.Helper()
	return build(t, true, mutate)
}

// NewUnchecked is New without Params.Validate, for scenarios that need
// parameters a deployment refuses, such as free SNAKE.
func NewUnchecked(t *testing.T, mutate ...func(p *core.Params)) *Engine {
	t.Helper()
	return build(t, false, mutate)
}

func build(t *testing.T, validate bool, mutate []func(p *core.Params)) *Engine {
	t.Helper()
	op, err := wallet.Generate(ChainID)
	require.NoError(t, err)

	params := core.DefaultParams()
	params.Operator = op.PubKey()
	for _, m := range mutate {
		m(&params)
	}
	if validate {
		require.NoError(t, params.Validate())
	}

	db := testutil.NewMemDB()
	state := storage.NewStateDB(db)
	e := &Engine{
		t:        t,
		DB:       db,
		State:    state,
		Emitter:  events.NewEmitter(),
		Operator: op,
		Now:      time.Unix(1_700_000_000, 0),
	}
	created, err := vm.InitGenesis(state, map[string]vm.GenesisAccount{
		op.PubKey(): {Balance: 100 * Ether},
	}, e.Now.Unix())
	require.NoError(t, err)
	require.True(t, created)

	e.Exec = vm.NewExecutor(state, e.Emitter, params, ChainID)
	e.Exec.SetClock(func() time.Time { return e.Now })
	return e
}

// Advance moves the engine clock forward.
func (e *Engine) Advance(d time.Duration) { e.Now = e.Now.Add(d) }

// Player creates a wallet whose account holds balance.
func (e *Engine) Player(balance uint64) *wallet.Wallet {
	return e.account(balance, false)
}

// Rejecting creates a wallet whose account refuses incoming native transfers.
func (e *Engine) Rejecting(balance uint64) *wallet.Wallet {
	return e.account(balance, true)
}

func (e *Engine) account(balance uint64, rejects bool) *wallet.Wallet {
	e.t.Helper()
	w, err := wallet.Generate(ChainID)
	require.NoError(e.t, err)
	require.NoError(e.t, e.State.SetAccount(&core.Account{
		Address:         w.PubKey(),
		Balance:         balance,
		RejectsPayments: rejects,
	}))
	require.NoError(e.t, e.State.Commit())
	return w
}

// Apply signs typ for w at its current nonce and executes it.
func (e *Engine) Apply(w *wallet.Wallet, typ core.TxType, value uint64, payload any) (*vm.Receipt, error) {
	e.t.Helper()
	acc, err := e.Exec.Account(w.PubKey())
	require.NoError(e.t, err)
	tx, err := w.NewTx(typ, acc.Nonce, value, payload)
	require.NoError(e.t, err)
	return e.Exec.ExecuteTx(tx)
}

// MustApply is Apply that fails the test on error.
func (e *Engine) MustApply(w *wallet.Wallet, typ core.TxType, value uint64, payload any) *vm.Receipt {
	e.t.Helper()
	rcpt, err := e.Apply(w, typ, value, payload)
	require.NoError(e.t, err, "%s", typ)
	return rcpt
}

// BuySnake buys amount SNAKE at the configured price.
func (e *Engine) BuySnake(w *wallet.Wallet, amount uint64) {
	e.t.Helper()
	e.MustApply(w, core.TxBuySnake, amount*e.Exec.Params().SnakePrice, core.AmountPayload{Amount: amount})
}

// BuyCredits buys amount game credits.
func (e *Engine) BuyCredits(w *wallet.Wallet, amount uint64) {
	e.t.Helper()
	e.MustApply(w, core.TxBuyCredits, 0, core.AmountPayload{Amount: amount})
}

// Play starts a game and settles it with score.
func (e *Engine) Play(w *wallet.Wallet, score uint64) *vm.Receipt {
	e.t.Helper()
	e.MustApply(w, core.TxGameStart, 0, nil)
	return e.MustApply(w, core.TxGameOver, 0, core.GameOverPayload{Score: score})
}

// FinishRound closes the current round as the operator.
func (e *Engine) FinishRound() *vm.Receipt {
	e.t.Helper()
	return e.MustApply(e.Operator, core.TxFinishRound, 0, nil)
}

// Data returns the player's record and holdings.
func (e *Engine) Data(w *wallet.Wallet) *vm.PlayerData {
	e.t.Helper()
	d, err := e.Exec.PlayerData(w.PubKey())
	require.NoError(e.t, err)
	return d
}

// Pot returns the engine balance.
func (e *Engine) Pot() uint64 {
	e.t.Helper()
	bal, err := e.Exec.Balance()
	require.NoError(e.t, err)
	return bal
}

// Balance returns the native balance of w.
func (e *Engine) Balance(w *wallet.Wallet) uint64 {
	e.t.Helper()
	acc, err := e.Exec.Account(w.PubKey())
	require.NoError(e.t, err)
	return acc.Balance
}

// Events returns the types of the events in rcpt, in order.
func Events(rcpt *vm.Receipt) []events.EventType {
	out := make([]events.EventType, 0, len(rcpt.Events))
	for _, ev := range rcpt.Events {
		out = append(out, ev.Type)
	}
	return out
}

// Find returns the first event of typ in rcpt, or nil.
func Find(rcpt *vm.Receipt, typ events.EventType) *events.Event {
	for i := range rcpt.Events {
		if rcpt.Events[i].Type == typ {
			return &rcpt.Events[i]
		}
	}
	return nil
}
