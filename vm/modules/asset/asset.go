// Package asset gates the collectibles: the per-game Snake NFT unlock and
// the Super Pet NFT eligibility check and claim.
package asset

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
)

func init() {
	vm.Register(core.TxCheckSuperNftClaim, handleCheckSuperNftClaim)
	vm.RegisterPayable(core.TxSuperPetNftClaim, handleSuperPetNftClaim)
}

// UnlockSnakeNft grants a pending Snake NFT when score reaches the threshold
// and the player is still under the lifetime cap. Reaching the cap is not an
// error; it is reported with a max_snake_nfts_claimed event.
func UnlockSnakeNft(ctx *vm.Context, player *core.Player, score uint64) {
	if score < ctx.Params.ScoreToClaimSnakeNft {
		return
	}
	if player.Stats.SnakeNftsAmount+player.SnakeNftsToClaim >= ctx.Params.MaxSnakeNfts {
		ctx.Emit(events.EventMaxSnakeNfts, map[string]any{
			"player": player.Address,
			"max":    ctx.Params.MaxSnakeNfts,
		})
		return
	}
	player.SnakeNftsToClaim++
	ctx.Emit(events.EventSnakeNftUnlocked, map[string]any{
		"player":  player.Address,
		"score":   score,
		"pending": player.SnakeNftsToClaim,
	})
}

func handleCheckSuperNftClaim(ctx *vm.Context, _ json.RawMessage) error {
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	if player.Stats.SuperNftsAmount >= ctx.Params.MaxSuperNfts {
		player.SuperNftClaimable = false
		ctx.Emit(events.EventMaxSuperNfts, map[string]any{
			"player": player.Address,
			"max":    ctx.Params.MaxSuperNfts,
		})
		return ctx.State.SetPlayer(player)
	}
	held, err := ctx.SnakeNft.BalanceOf(player.Address)
	if err != nil {
		return err
	}
	if held < ctx.Params.SnakeNftsRequired {
		return nil
	}
	player.SuperNftClaimable = true
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventSuperNftUnlocked, map[string]any{
		"player":     player.Address,
		"snake_nfts": held,
	})
	return nil
}

func handleSuperPetNftClaim(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SuperPetNftClaimPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode super_pet_nft_claim payload: %w", err)
	}
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	if !player.SuperNftClaimable {
		return core.ErrNoSuperNftToClaim
	}
	if ctx.Tx.Value < ctx.Params.SuperNftFee {
		return fmt.Errorf("paid %d need %d: %w", ctx.Tx.Value, ctx.Params.SuperNftFee, core.ErrInsufficientPayment)
	}

	required := ctx.Params.SnakeNftsRequired
	owned, err := ctx.State.OwnedNfts(core.CollectionSnakeNft, player.Address)
	if err != nil {
		return err
	}
	if uint64(len(owned)) < required {
		return fmt.Errorf("hold %d Snake NFTs need %d: %w", len(owned), required, core.ErrInsufficientBalance)
	}

	burn, err := selectBurn(p.TokenIDs, owned, required)
	if err != nil {
		return err
	}
	for _, id := range burn {
		if err := ctx.SnakeNft.Burn(player.Address, id); err != nil {
			return err
		}
	}
	id, err := ctx.SuperPet.Mint(player.Address, ctx.Now)
	if err != nil {
		return err
	}

	player.SuperNftClaimable = false
	player.Stats.SuperNftsAmount++
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventSuperPetNftClaimed, map[string]any{
		"player":   player.Address,
		"token_id": id,
		"burned":   burn,
		"paid":     ctx.Tx.Value,
	})
	return nil
}

// selectBurn returns the Snake NFT ids to burn: the caller's explicit choice,
// or the lowest owned ids.
func selectBurn(chosen, owned []uint64, required uint64) ([]uint64, error) {
	if len(chosen) == 0 {
		return owned[:required], nil
	}
	if uint64(len(chosen)) != required {
		return nil, fmt.Errorf("named %d token ids, need exactly %d: %w", len(chosen), required, core.ErrIncorrectAmount)
	}
	seen := make(map[uint64]bool, len(chosen))
	for _, id := range chosen {
		if seen[id] {
			return nil, fmt.Errorf("token id %d named twice: %w", id, core.ErrIncorrectAmount)
		}
		seen[id] = true
	}
	return chosen, nil
}
