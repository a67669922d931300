// Package session runs a single game: gameStart consumes a credit and
// gameOver settles the score into rewards, unlocks and round records.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
	"github.com/tolelom/snakegame/vm/modules/asset"
	"github.com/tolelom/snakegame/vm/modules/rewards"
	"github.com/tolelom/snakegame/vm/modules/round"
)

func init() {
	vm.Register(core.TxGameStart, handleGameStart)
	vm.Register(core.TxGameOver, handleGameOver)
}

// handleGameStart consumes one credit, free credits first.
func handleGameStart(ctx *vm.Context, _ json.RawMessage) error {
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	if player.GameStarted {
		return core.ErrGameAlreadyStarted
	}
	if player.GameCredits == 0 {
		return core.ErrNoGameCredits
	}
	player.GameCredits--
	if player.FreeCredits > 0 {
		player.FreeCredits--
		player.PaidGame = false
	} else {
		player.PaidGame = true
	}
	player.GameStarted = true
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventGameStarted, map[string]any{
		"player":  player.Address,
		"paid":    player.PaidGame,
		"credits": player.GameCredits,
	})
	return nil
}

func handleGameOver(ctx *vm.Context, payload json.RawMessage) error {
	var p core.GameOverPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode game_over payload: %w", err)
	}
	player, err := ctx.State.GetPlayer(ctx.Caller())
	if err != nil {
		return err
	}
	if !player.GameStarted {
		return core.ErrGameNotStarted
	}
	paid := player.PaidGame

	if err := rewards.Accrue(player, p.Score); err != nil {
		return err
	}
	asset.UnlockSnakeNft(ctx, player, p.Score)
	roundNo, err := round.Record(ctx, player.Address, p.Score, paid)
	if err != nil {
		return err
	}

	player.GameStarted = false
	player.PaidGame = false
	if err := ctx.State.SetPlayer(player); err != nil {
		return err
	}
	ctx.Emit(events.EventGameOver, map[string]any{
		"player":         player.Address,
		"score":          p.Score,
		"paid":           paid,
		"round":          roundNo,
		"fruit_to_claim": player.FruitToClaim,
		"best_score":     player.Stats.BestScore,
		"at":             ctx.Now,
	})
	return nil
}
