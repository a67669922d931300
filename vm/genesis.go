package vm

import (
	"fmt"

	"github.com/tolelom/snakegame/core"
)

// GenesisAccount seeds one account at chain creation.
type GenesisAccount struct {
	Balance         uint64
	RejectsPayments bool
}

// InitGenesis creates the engine account, the alloc accounts and round 1 and
// commits them. It is a no-op on an already initialised state.
func InitGenesis(state core.State, alloc map[string]GenesisAccount, now int64) (bool, error) {
	global, err := state.GetGlobal()
	if err != nil {
		return false, err
	}
	if global.CurrentRound != 0 {
		return false, nil
	}

	for addr, ga := range alloc {
		if addr == core.EngineAddress {
			return false, fmt.Errorf("genesis: alloc to reserved address %q", addr)
		}
		acc := &core.Account{Address: addr, Balance: ga.Balance, RejectsPayments: ga.RejectsPayments}
		if err := state.SetAccount(acc); err != nil {
			return false, err
		}
	}
	if err := state.SetAccount(&core.Account{Address: core.EngineAddress}); err != nil {
		return false, err
	}
	if err := state.SetRound(&core.GameRound{Number: 1, StartedAt: now}); err != nil {
		return false, err
	}
	global.CurrentRound = 1
	if err := state.SetGlobal(global); err != nil {
		return false, err
	}
	if err := state.Commit(); err != nil {
		return false, fmt.Errorf("genesis commit: %w", err)
	}
	return true, nil
}
