// Package rewards turns settled scores into FRUIT and Snake NFT claims.
package rewards

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
)

func init() {
	vm.Register(core.TxFruitClaim, handleFruitClaim)
	vm.Register(core.TxSnakeNftClaim, handleSnakeNftClaim)
}

// Accrue books a settled game on the player's record: the score becomes
// claimable FRUIT and the lifetime stats advance.
func Accrue(player *core.Player, score uint64) error {
	fruit, err := core.SafeAdd(player.FruitToClaim, score)
	if err != nil {
		return fmt.Errorf("fruit to claim: %w", err)
	}
	player.FruitToClaim = fruit
	player.Stats.GamesPlayed++
	player.Stats.LastScore = score
	player.Stats.BestScore = max(player.Stats.BestScore, score)
	return nil
}

func handleFruitClaim(ctx *vm.Context, _ json.RawMessage) error {
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	amount := player.FruitToClaim
	if amount == 0 {
		return core.ErrNoFruitToClaim
	}
	if err := ctx.Fruit.Mint(player.Address, amount); err != nil {
		return fmt.Errorf("fruit claim: %w", err)
	}
	if player.Stats.FruitsCollected, err = core.SafeAdd(player.Stats.FruitsCollected, amount); err != nil {
		return err
	}
	player.FruitToClaim = 0
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventFruitClaimed, map[string]any{"player": player.Address, "amount": amount})
	return nil
}

// handleSnakeNftClaim mints pending Snake NFTs, burning the FRUIT fee for
// each one.
func handleSnakeNftClaim(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SnakeNftClaimPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode snake_nft_claim payload: %w", err)
	}
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	if player.SnakeNftsToClaim == 0 {
		return core.ErrNoSnakeNftsToClaim
	}
	count := p.Amount
	if count == 0 {
		count = player.SnakeNftsToClaim
	}
	if count > player.SnakeNftsToClaim {
		return fmt.Errorf("claim %d Snake NFTs, %d pending: %w", count, player.SnakeNftsToClaim, core.ErrIncorrectAmount)
	}

	ids := make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		if err := ctx.Fruit.Burn(player.Address, ctx.Params.SnakeNftFee); err != nil {
			return fmt.Errorf("snake nft fee: %w", err)
		}
		id, err := ctx.SnakeNft.Mint(player.Address, ctx.Now)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		player.SnakeNftsToClaim--
		player.Stats.SnakeNftsAmount++
	}
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventSnakeNftClaimed, map[string]any{
		"player":    player.Address,
		"token_ids": ids,
		"fee":       ctx.Params.SnakeNftFee * count,
	})
	return nil
}
