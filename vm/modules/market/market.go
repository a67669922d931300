// Package market registers the FRUIT to SNAKE exchange.
package market

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
)

func init() {
	vm.Register(core.TxFruitToSnakeSwap, handleFruitToSnakeSwap)
}

// handleFruitToSnakeSwap burns amount FRUIT and mints amount/rate SNAKE.
// amount must be an exact multiple of the rate.
func handleFruitToSnakeSwap(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AmountPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode fruit_to_snake_swap payload: %w", err)
	}
	if p.Amount == 0 {
		return fmt.Errorf("swap amount must be > 0: %w", core.ErrIncorrectAmount)
	}
	balance, err := ctx.Fruit.BalanceOf(ctx.Caller())
	if err != nil {
		return err
	}
	if balance < p.Amount {
		return fmt.Errorf("swap %d FRUIT: have %d: %w", p.Amount, balance, core.ErrInsufficientBalance)
	}
	rate := ctx.Params.FruitSnakeRate
	if p.Amount%rate != 0 {
		return fmt.Errorf("swap %d FRUIT: not a multiple of %d: %w", p.Amount, rate, core.ErrIncorrectAmount)
	}

	snake := p.Amount / rate
	if err := ctx.Fruit.Burn(ctx.Caller(), p.Amount); err != nil {
		return err
	}
	if err := ctx.Snake.Mint(ctx.Caller(), snake); err != nil {
		return err
	}
	ctx.Emit(events.EventFruitSwapped, map[string]any{
		"player": ctx.Caller(),
		"fruit":  p.Amount,
		"snake":  snake,
	})
	return nil
}
