package config

import (
	"fmt"

	"github.com/tolelom/snakegame/vm"
)

// GenesisAlloc seeds one account. Balance is a decimal ether string.
type GenesisAlloc struct {
	Balance         string `json:"balance"`
	RejectsPayments bool   `json:"rejects_payments,omitempty"`
}

// GenesisConfig describes the engine's initial state.
type GenesisConfig struct {
	ChainID string                  `json:"chain_id"`
	Alloc   map[string]GenesisAlloc `json:"alloc"` // pubkey hex → allocation
}

// Accounts converts the alloc map into genesis accounts.
func (g GenesisConfig) Accounts() (map[string]vm.GenesisAccount, error) {
	out := make(map[string]vm.GenesisAccount, len(g.Alloc))
	for addr, a := range g.Alloc {
		bal := uint64(0)
		if a.Balance != "" {
			var err error
			if bal, err = ParseNative(a.Balance); err != nil {
				return nil, fmt.Errorf("alloc %s: %w", addr, err)
			}
		}
		out[addr] = vm.GenesisAccount{Balance: bal, RejectsPayments: a.RejectsPayments}
	}
	return out, nil
}
