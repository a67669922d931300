// Package economy registers the currency handlers: native transfers, pot
// funding, the SNAKE airdrop and purchases of SNAKE and game credits.
package economy

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
)

func init() {
	vm.Register(core.TxTransfer, handleTransfer)
	vm.RegisterPayable(core.TxFund, handleFund)
}

func handleTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TransferPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode transfer payload: %w", err)
	}
	if p.Amount == 0 {
		return fmt.Errorf("transfer amount must be > 0: %w", core.ErrIncorrectAmount)
	}
	if p.To == "" {
		return fmt.Errorf("transfer to address required: %w", core.ErrInvalidPayload)
	}
	if err := ctx.Native.Transfer(ctx.Caller(), p.To, p.Amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	ctx.Emit(events.EventTokenTransfer, map[string]any{
		"from":   ctx.Caller(),
		"to":     p.To,
		"amount": p.Amount,
	})
	return nil
}

// handleFund accepts a bare payment into the prize pot. The executor has
// already moved tx.Value to the engine account.
func handleFund(ctx *vm.Context, _ json.RawMessage) error {
	if ctx.Tx.Value == 0 {
		return fmt.Errorf("fund without value: %w", core.ErrInsufficientPayment)
	}
	ctx.Emit(events.EventFunded, map[string]any{
		"from":   ctx.Caller(),
		"amount": ctx.Tx.Value,
	})
	return nil
}
