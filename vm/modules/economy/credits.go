package economy

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
)

func init() {
	vm.Register(core.TxSnakeAirdrop, handleSnakeAirdrop)
	vm.RegisterPayable(core.TxBuySnake, handleBuySnake)
	vm.Register(core.TxBuyCredits, handleBuyCredits)
}

func handleSnakeAirdrop(ctx *vm.Context, _ json.RawMessage) error {
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	if player.SnakeAirdropped {
		return core.ErrAirdropClaimed
	}
	amount := ctx.Params.AirdropAmount
	if err := ctx.Snake.Mint(player.Address, amount); err != nil {
		return fmt.Errorf("airdrop: %w", err)
	}
	player.SnakeAirdropped = true
	player.AirdropSnake += amount
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventSnakeAirdrop, map[string]any{"player": player.Address, "amount": amount})
	return nil
}

// handleBuySnake mints SNAKE against the attached payment. Overpayment is
// kept in the pot.
func handleBuySnake(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AmountPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode buy_snake payload: %w", err)
	}
	if p.Amount == 0 {
		return fmt.Errorf("buy_snake amount must be > 0: %w", core.ErrIncorrectAmount)
	}
	cost, err := core.SafeMul(p.Amount, ctx.Params.SnakePrice)
	if err != nil {
		return err
	}
	if ctx.Tx.Value < cost {
		return fmt.Errorf("buy %d SNAKE: paid %d need %d: %w", p.Amount, ctx.Tx.Value, cost, core.ErrInsufficientPayment)
	}
	if err := ctx.Snake.Mint(ctx.Caller(), p.Amount); err != nil {
		return err
	}
	ctx.Emit(events.EventSnakeBought, map[string]any{
		"player": ctx.Caller(),
		"amount": p.Amount,
		"paid":   ctx.Tx.Value,
	})
	return nil
}

// handleBuyCredits burns amount*price SNAKE for amount credits. Airdropped
// SNAKE is spent first; every credit whose price it touched is a free credit.
func handleBuyCredits(ctx *vm.Context, payload json.RawMessage) error {
	var p core.AmountPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode buy_credits payload: %w", err)
	}
	if p.Amount == 0 {
		return fmt.Errorf("buy_credits amount must be > 0: %w", core.ErrIncorrectAmount)
	}
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	superNfts, err := ctx.SuperPet.BalanceOf(player.Address)
	if err != nil {
		return err
	}
	price := ctx.Params.CreditPrice(superNfts)
	cost, err := core.SafeMul(p.Amount, price)
	if err != nil {
		return err
	}
	balance, err := ctx.Snake.BalanceOf(player.Address)
	if err != nil {
		return err
	}
	if balance < cost {
		return fmt.Errorf("buy %d credits at %d SNAKE: have %d: %w", p.Amount, price, balance, core.ErrInsufficientBalance)
	}

	if err := ctx.Snake.Transfer(player.Address, core.EngineAddress, cost); err != nil {
		return err
	}
	if err := ctx.Snake.Burn(core.EngineAddress, cost); err != nil {
		return err
	}

	airdrop := min(player.AirdropSnake, balance)
	spent := min(airdrop, cost)
	free := (spent + price - 1) / price
	player.AirdropSnake = airdrop - spent
	if player.GameCredits, err = core.SafeAdd(player.GameCredits, p.Amount); err != nil {
		return err
	}
	player.FreeCredits += free
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventCreditsBought, map[string]any{
		"player":       player.Address,
		"amount":       p.Amount,
		"price":        price,
		"free_credits": free,
	})
	return nil
}
