package vm

import (
	"slices"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/ledger"
)

// PlayerData is a player's record joined with their ledger holdings.
type PlayerData struct {
	core.Player
	Balance      uint64 `json:"balance"` // native
	Nonce        uint64 `json:"nonce"`
	Snake        uint64 `json:"snake"`
	Fruit        uint64 `json:"fruit"`
	SnakeNfts    uint64 `json:"snake_nfts"`
	SuperPetNfts uint64 `json:"super_pet_nfts"`
	CreditPrice  uint64 `json:"credit_price"`
}

// PlayerData returns the player's record and holdings.
func (e *Executor) PlayerData(address string) (*PlayerData, error) {
	var out *PlayerData
	err := e.View(func(state core.State) error {
		p, err := state.GetPlayer(address)
		if err != nil {
			return err
		}
		acc, err := state.GetAccount(address)
		if err != nil {
			return err
		}
		d := &PlayerData{Player: *p, Balance: acc.Balance, Nonce: acc.Nonce}
		if d.Snake, err = ledger.NewToken(state, core.TokenSnake).BalanceOf(address); err != nil {
			return err
		}
		if d.Fruit, err = ledger.NewToken(state, core.TokenFruit).BalanceOf(address); err != nil {
			return err
		}
		if d.SnakeNfts, err = ledger.NewNftCollection(state, core.CollectionSnakeNft, nil).BalanceOf(address); err != nil {
			return err
		}
		if d.SuperPetNfts, err = ledger.NewNftCollection(state, core.CollectionSuperPetNft, nil).BalanceOf(address); err != nil {
			return err
		}
		d.CreditPrice = e.params.CreditPrice(d.SuperPetNfts)
		out = d
		return nil
	})
	return out, err
}

// PlayerStats returns the player's lifetime counters.
func (e *Executor) PlayerStats(address string) (core.PlayerStats, error) {
	var out core.PlayerStats
	err := e.View(func(state core.State) error {
		p, err := state.GetPlayer(address)
		if err != nil {
			return err
		}
		out = p.Stats
		return nil
	})
	return out, err
}

// Global returns the process-wide records and the current round number.
func (e *Executor) Global() (core.GlobalState, error) {
	var out core.GlobalState
	err := e.View(func(state core.State) error {
		g, err := state.GetGlobal()
		if err != nil {
			return err
		}
		out = *g
		return nil
	})
	return out, err
}

// Round returns round number n. Zero selects the current round.
func (e *Executor) Round(n uint64) (*core.GameRound, error) {
	var out *core.GameRound
	err := e.View(func(state core.State) error {
		if n == 0 {
			g, err := state.GetGlobal()
			if err != nil {
				return err
			}
			n = g.CurrentRound
		}
		r, err := state.GetRound(n)
		out = r
		return err
	})
	return out, err
}

// Account returns the native account of address.
func (e *Executor) Account(address string) (*core.Account, error) {
	var out *core.Account
	err := e.View(func(state core.State) error {
		acc, err := state.GetAccount(address)
		out = acc
		return err
	})
	return out, err
}

// Balance returns the native balance held by the engine, the next prize pot.
func (e *Executor) Balance() (uint64, error) {
	acc, err := e.Account(core.EngineAddress)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Nfts returns the tokens owner holds in collection.
func (e *Executor) Nfts(collection, owner string) ([]*core.Nft, error) {
	var out []*core.Nft
	err := e.View(func(state core.State) error {
		nfts, err := ledger.NewNftCollection(state, collection, nil).Tokens(owner)
		out = nfts
		return err
	})
	return out, err
}

// StateRoot is the state hash after the transaction with sequence Seq.
type StateRoot struct {
	Seq  uint64 `json:"seq"`
	Root string `json:"root"`
}

// StateRoot hashes the committed state. Seq and Root are read under the
// same lock, so a client can match the root against its receipts.
func (e *Executor) StateRoot() (StateRoot, error) {
	var out StateRoot
	err := e.View(func(state core.State) error {
		g, err := state.GetGlobal()
		if err != nil {
			return err
		}
		out.Seq = g.Sequence
		out.Root, err = state.StateRoot()
		return err
	})
	return out, err
}

// TxTypes returns the registered transaction types in name order.
func (e *Executor) TxTypes() []core.TxType {
	types := e.registry.Types()
	slices.Sort(types)
	return types
}
