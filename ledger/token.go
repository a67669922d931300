// Package ledger implements the token collaborators the game engine settles
// against: two fungible tokens, two NFT collections and the native currency.
// Every ledger writes through core.State, so a failed transaction rolls its
// ledger mutations back together with the game records.
package ledger

import (
	"fmt"

	"github.com/tolelom/snakegame/core"
)

// Fungible is the capability the engine needs from SNAKE and FRUIT.
type Fungible interface {
	Mint(to string, amount uint64) error
	Burn(from string, amount uint64) error
	BalanceOf(owner string) (uint64, error)
	Transfer(from, to string, amount uint64) error
}

// Token is a state-backed fungible token.
type Token struct {
	state  core.State
	symbol string
}

var _ Fungible = (*Token)(nil)

// NewToken returns the token identified by symbol.
func NewToken(state core.State, symbol string) *Token {
	return &Token{state: state, symbol: symbol}
}

func (t *Token) BalanceOf(owner string) (uint64, error) {
	return t.state.GetTokenBalance(t.symbol, owner)
}

// TotalSupply returns the amount in circulation.
func (t *Token) TotalSupply() (uint64, error) {
	return t.state.GetTokenSupply(t.symbol)
}

func (t *Token) Mint(to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	supply, err := t.state.GetTokenSupply(t.symbol)
	if err != nil {
		return err
	}
	if supply, err = core.SafeAdd(supply, amount); err != nil {
		return fmt.Errorf("mint %d %s: supply: %w", amount, t.symbol, err)
	}
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if bal, err = core.SafeAdd(bal, amount); err != nil {
		return fmt.Errorf("mint %d %s: %w", amount, t.symbol, err)
	}
	if err := t.state.SetTokenSupply(t.symbol, supply); err != nil {
		return err
	}
	return t.state.SetTokenBalance(t.symbol, to, bal)
}

func (t *Token) Burn(from string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("burn %s: have %d need %d: %w", t.symbol, bal, amount, core.ErrInsufficientBalance)
	}
	supply, err := t.state.GetTokenSupply(t.symbol)
	if err != nil {
		return err
	}
	if err := t.state.SetTokenSupply(t.symbol, supply-amount); err != nil {
		return err
	}
	return t.state.SetTokenBalance(t.symbol, from, bal-amount)
}

func (t *Token) Transfer(from, to string, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("transfer %s: have %d need %d: %w", t.symbol, fromBal, amount, core.ErrInsufficientBalance)
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if toBal, err = core.SafeAdd(toBal, amount); err != nil {
		return err
	}
	if err := t.state.SetTokenBalance(t.symbol, from, fromBal-amount); err != nil {
		return err
	}
	return t.state.SetTokenBalance(t.symbol, to, toBal)
}
