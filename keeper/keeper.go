// Package keeper finishes rounds on a fixed schedule with the operator key.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sethvargo/go-retry"

	"github.com/tolelom/snakegame/config"
	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/crypto"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/vm"
	"github.com/tolelom/snakegame/wallet"
)

// Keeper submits an operator-signed finish_round every interval.
type Keeper struct {
	exec     *vm.Executor
	operator *wallet.Wallet
	interval time.Duration
	backoff  func() retry.Backoff
}

// New creates a Keeper. operator must hold the key configured as the
// engine operator.
func New(exec *vm.Executor, operator *wallet.Wallet, interval time.Duration) (*Keeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("keeper interval must be > 0, got %s", interval)
	}
	if operator.PubKey() != exec.Params().Operator {
		return nil, fmt.Errorf("key %s is not the operator %s",
			crypto.Short(operator.PubKey()), crypto.Short(exec.Params().Operator))
	}
	return &Keeper{
		exec:     exec,
		operator: operator,
		interval: interval,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
		},
	}, nil
}

// FinishRound submits one finish_round. Failed commits and nonce races
// with other operator transactions are retried; other rejections are
// returned as is.
func (k *Keeper) FinishRound(ctx context.Context) (*vm.Receipt, error) {
	var rcpt *vm.Receipt
	err := retry.Do(ctx, k.backoff(), func(ctx context.Context) error {
		acc, err := k.exec.Account(k.operator.PubKey())
		if err != nil {
			return retry.RetryableError(err)
		}
		tx, err := k.operator.FinishRound(acc.Nonce)
		if err != nil {
			return err
		}
		rcpt, err = k.exec.ExecuteTx(tx)
		if errors.Is(err, core.ErrCommitFailed) || errors.Is(err, core.ErrInvalidNonce) {
			return retry.RetryableError(err)
		}
		return err
	})
	return rcpt, err
}

// Run finishes a round every interval until ctx is cancelled.
func (k *Keeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rcpt, err := k.FinishRound(ctx)
			if err != nil {
				log.Printf("[keeper] finish round error: %v", err)
				continue
			}
			log.Printf("[keeper] %s", Summary(rcpt))
		}
	}
}

// Summary renders the round_finished event of rcpt for humans.
func Summary(rcpt *vm.Receipt) string {
	for _, ev := range rcpt.Events {
		if ev.Type != events.EventRoundFinished {
			continue
		}
		round, _ := ev.Data["round"].(uint64)
		games, _ := ev.Data["games_played"].(uint64)
		pot, _ := ev.Data["pot"].(uint64)
		best, _ := ev.Data["best_player"].(string)
		failed, _ := ev.Data["failed_payouts"].(int)
		s := fmt.Sprintf("round %s finished: %s games, pot %s ETH",
			humanize.Comma(int64(round)), humanize.Comma(int64(games)), config.FormatNative(pot))
		if best != "" {
			s += ", best " + crypto.Short(best)
		}
		if failed > 0 {
			s += fmt.Sprintf(", %d payout(s) failed", failed)
		}
		return s
	}
	return "tx " + rcpt.TxID
}
