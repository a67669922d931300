// Package round tracks the current round, finishes it with a prize
// distribution and lets the operator withdraw from the pot.
package round

import (
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
)

func init() {
	vm.Register(core.TxFinishRound, handleFinishRound)
	vm.Register(core.TxWithdrawEth, handleWithdrawEth)
}

// Current loads the global state and the round it points at.
func Current(state core.State) (*core.GlobalState, *core.GameRound, error) {
	global, err := state.GetGlobal()
	if err != nil {
		return nil, nil, err
	}
	r, err := state.GetRound(global.CurrentRound)
	if err != nil {
		return nil, nil, fmt.Errorf("current round: %w", err)
	}
	return global, r, nil
}

// Record counts a settled game in the current round. Only a game paid with
// purchased SNAKE can take the round record.
func Record(ctx *vm.Context, player string, score uint64, paid bool) (uint64, error) {
	_, r, err := Current(ctx.State)
	if err != nil {
		return 0, err
	}
	r.GamesPlayed++
	if paid && score > r.HighestScore {
		r.HighestScore = score
		r.BestPlayer = player
		ctx.Emit(events.EventNewRoundRecord, map[string]any{
			"round":  r.Number,
			"player": player,
			"score":  score,
		})
	}
	if err := ctx.State.SetRound(r); err != nil {
		return 0, err
	}
	return r.Number, nil
}

func requireOperator(ctx *vm.Context) error {
	if ctx.Caller() != ctx.Params.Operator {
		return fmt.Errorf("%s is not the operator: %w", ctx.Caller(), core.ErrUnauthorized)
	}
	return nil
}

func handleFinishRound(ctx *vm.Context, _ json.RawMessage) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	global, r, err := Current(ctx.State)
	if err != nil {
		return err
	}

	if global.GamesPlayedTotal, err = core.SafeAdd(global.GamesPlayedTotal, r.GamesPlayed); err != nil {
		return err
	}
	if r.HighestScore > global.HighestScoreEver {
		global.HighestScoreEver = r.HighestScore
		global.BestPlayerEver = r.BestPlayer
	}

	pot, err := ctx.Native.Balance(core.EngineAddress)
	if err != nil {
		return err
	}
	payouts, payErr := Distribute(ctx, Split(pot, ctx.Params, Beneficiaries{
		RoundBest: r.BestPlayer,
		BestEver:  global.BestPlayerEver,
		Developer: ctx.Params.DeveloperAddress(),
	}))
	if payouts == nil {
		return payErr
	}
	for _, p := range payouts {
		switch {
		case p.Paid:
			ctx.Emit(events.EventPrizePaid, map[string]any{
				"round": r.Number, "role": p.Role, "to": p.Beneficiary, "amount": p.Amount,
			})
		case p.Error != "":
			ctx.Emit(events.EventPrizeTransferFailed, map[string]any{
				"round": r.Number, "role": p.Role, "to": p.Beneficiary, "amount": p.Amount, "error": p.Error,
			})
		}
	}

	r.FinishedAt = ctx.Now
	r.Payouts = payouts
	if err := ctx.State.SetRound(r); err != nil {
		return err
	}
	next := &core.GameRound{Number: r.Number + 1, StartedAt: ctx.Now}
	if err := ctx.State.SetRound(next); err != nil {
		return err
	}
	global.CurrentRound = next.Number
	if err := ctx.State.SetGlobal(global); err != nil {
		return err
	}

	ctx.Emit(events.EventRoundFinished, map[string]any{
		"round":          r.Number,
		"games_played":   r.GamesPlayed,
		"best_player":    r.BestPlayer,
		"highest_score":  r.HighestScore,
		"pot":            pot,
		"failed_payouts": len(multierr.Errors(payErr)),
		"next_round":     next.Number,
	})
	return nil
}

// handleWithdrawEth moves native currency from the pot to the operator.
// Zero amount withdraws the whole pot.
func handleWithdrawEth(ctx *vm.Context, payload json.RawMessage) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	var p core.WithdrawEthPayload
	if err := vm.Decode(payload, &p); err != nil {
		return fmt.Errorf("decode withdraw_eth payload: %w", err)
	}
	pot, err := ctx.Native.Balance(core.EngineAddress)
	if err != nil {
		return err
	}
	amount := p.Amount
	if amount == 0 {
		amount = pot
	}
	if amount == 0 || amount > pot {
		return fmt.Errorf("withdraw %d from pot of %d: %w", amount, pot, core.ErrEthWithdrawalFailed)
	}
	if err := ctx.Native.Transfer(core.EngineAddress, ctx.Caller(), amount); err != nil {
		return fmt.Errorf("%w: %v", core.ErrEthWithdrawalFailed, err)
	}
	ctx.Emit(events.EventEthWithdrawn, map[string]any{"to": ctx.Caller(), "amount": amount})
	return nil
}
