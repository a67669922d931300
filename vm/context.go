package vm

import (
	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/ledger"
)

// Context is passed to every Handler and provides access to the engine
// state, the triggering transaction, the economic parameters and the ledgers.
// Events recorded with Emit are published only after the transaction commits.
type Context struct {
	State  core.State
	Tx     *core.Transaction
	Params core.Params
	Seq    uint64 // sequence number assigned to Tx
	Now    int64  // unix seconds

	Snake    *ledger.Token
	Fruit    *ledger.Token
	SnakeNft *ledger.NftCollection
	SuperPet *ledger.NftCollection
	Native   *ledger.Native

	events []events.Event
}

func newContext(state core.State, tx *core.Transaction, params core.Params, seq uint64, now int64) *Context {
	return &Context{
		State:    state,
		Tx:       tx,
		Params:   params,
		Seq:      seq,
		Now:      now,
		Snake:    ledger.NewToken(state, core.TokenSnake),
		Fruit:    ledger.NewToken(state, core.TokenFruit),
		SnakeNft: ledger.NewNftCollection(state, core.CollectionSnakeNft, params.SnakeNftURIs),
		SuperPet: ledger.NewNftCollection(state, core.CollectionSuperPetNft, params.SuperPetNftURIs),
		Native:   ledger.NewNative(state),
	}
}

// Caller returns the transaction sender.
func (c *Context) Caller() string { return c.Tx.From }

// Emit queues an event for publication after commit.
func (c *Context) Emit(typ events.EventType, data map[string]any) {
	c.events = append(c.events, events.Event{
		Type: typ,
		TxID: c.Tx.ID,
		Seq:  c.Seq,
		Data: data,
	})
}

// Events returns the events queued so far.
func (c *Context) Events() []events.Event { return c.events }
