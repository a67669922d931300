package vm

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
)

// Receipt describes a committed transaction.
type Receipt struct {
	TxID   string         `json:"tx_id"`
	Seq    uint64         `json:"seq"`
	Type   core.TxType    `json:"type"`
	Events []events.Event `json:"events"`
}

// Executor applies transactions to the state using the global Handler
// registry. It is the single writer: transactions run one at a time, each
// inside its own snapshot, and each successful one is committed before the
// next starts. Readers go through View and never observe a half-applied
// transaction.
type Executor struct {
	mu       sync.RWMutex
	state    core.State
	emitter  *events.Emitter
	params   core.Params
	chainID  string
	registry *Registry
	clock    func() time.Time
}

// NewExecutor creates an Executor with the given state and event emitter.
func NewExecutor(state core.State, emitter *events.Emitter, params core.Params, chainID string) *Executor {
	return &Executor{
		state:    state,
		emitter:  emitter,
		params:   params,
		chainID:  chainID,
		registry: globalRegistry,
		clock:    time.Now,
	}
}

// SetClock overrides the time source stamped on rounds and NFTs.
func (e *Executor) SetClock(clock func() time.Time) {
	e.clock = clock
}

// Params returns the economic parameters the executor enforces.
func (e *Executor) Params() core.Params { return e.params }

// ChainID returns the chain identifier transactions must carry.
func (e *Executor) ChainID() string { return e.chainID }

// View runs fn against the committed state under a shared lock.
func (e *Executor) View(fn func(state core.State) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.state)
}

// ExecuteTx verifies and executes a single transaction with
// snapshot/rollback, commits it and publishes its events.
func (e *Executor) ExecuteTx(tx *core.Transaction) (*Receipt, error) {
	if err := tx.Verify(); err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	if tx.ChainID != e.chainID {
		return nil, fmt.Errorf("chain ID mismatch: got %q want %q: %w", tx.ChainID, e.chainID, core.ErrInvalidPayload)
	}
	tx.ID = tx.Hash()

	e.mu.Lock()
	defer e.mu.Unlock()

	snapID, err := e.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	ctx, err := e.applyTx(tx)
	if err == nil {
		err = e.state.Commit()
		if err != nil {
			err = fmt.Errorf("%w: %w", core.ErrCommitFailed, err)
		}
	}
	if err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return nil, fmt.Errorf("revert snapshot after tx failure: %w (revert: %v)", err, revertErr)
		}
		return nil, err
	}

	ctx.Emit(events.EventTxExecuted, map[string]any{"type": string(tx.Type), "from": tx.From})
	rcpt := &Receipt{TxID: tx.ID, Seq: ctx.Seq, Type: tx.Type, Events: ctx.Events()}
	if e.emitter != nil {
		for _, ev := range rcpt.Events {
			e.emitter.Emit(ev)
		}
	}
	return rcpt, nil
}

// applyTx checks and bumps the nonce, moves the attached payment to the
// engine, then dispatches to the handler.
func (e *Executor) applyTx(tx *core.Transaction) (*Context, error) {
	ent, err := e.registry.lookup(tx.Type)
	if err != nil {
		return nil, err
	}

	acc, err := e.state.GetAccount(tx.From)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acc.Nonce != tx.Nonce {
		return nil, fmt.Errorf("expected %d got %d: %w", acc.Nonce, tx.Nonce, core.ErrInvalidNonce)
	}
	if acc.Nonce == math.MaxUint64 {
		return nil, fmt.Errorf("nonce overflow for account %s: %w", tx.From, core.ErrOverflow)
	}
	acc.Nonce++
	if err := e.state.SetAccount(acc); err != nil {
		return nil, err
	}

	global, err := e.state.GetGlobal()
	if err != nil {
		return nil, err
	}
	global.Sequence++
	if err := e.state.SetGlobal(global); err != nil {
		return nil, err
	}

	ctx := newContext(e.state, tx, e.params, global.Sequence, e.clock().Unix())

	if tx.Value > 0 {
		if !ent.payable {
			return nil, fmt.Errorf("%s: %w", tx.Type, core.ErrNotPayable)
		}
		if err := ctx.Native.Transfer(tx.From, core.EngineAddress, tx.Value); err != nil {
			return nil, fmt.Errorf("attach payment: %w", err)
		}
	}

	if err := ent.handler(ctx, tx.Payload); err != nil {
		return nil, err
	}
	return ctx, nil
}
