// Package indexer maintains a queryable history of committed games, rounds
// and prize payouts so clients can render leaderboards without scanning
// engine state.
package indexer

import (
	"context"
	"log"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/tolelom/snakegame/events"
)

// Indexer subscribes to engine events and writes them to the Store.
type Indexer struct {
	store   *Store
	timeout time.Duration
}

// New creates an Indexer backed by store and subscribes to relevant events.
func New(store *Store, emitter *events.Emitter) *Indexer {
	idx := &Indexer{store: store, timeout: 5 * time.Second}
	emitter.Subscribe(events.EventGameOver, idx.onGameOver)
	emitter.Subscribe(events.EventRoundFinished, idx.onRoundFinished)
	emitter.Subscribe(events.EventPrizePaid, idx.onPayout)
	emitter.Subscribe(events.EventPrizeTransferFailed, idx.onPayout)
	return idx
}

// write runs fn with a short retry budget; sqlite reports transient busy
// errors under concurrent readers.
func (idx *Indexer) write(what string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), idx.timeout)
	defer cancel()
	b := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Printf("[indexer] %s: %v", what, err)
	}
}

// ---- event handlers ----

func (idx *Indexer) onGameOver(ev events.Event) {
	player, _ := ev.Data["player"].(string)
	if player == "" {
		return
	}
	paid, _ := ev.Data["paid"].(bool)
	g := GameRecord{
		TxID:     ev.TxID,
		Seq:      ev.Seq,
		Round:    toUint(ev.Data["round"]),
		Player:   player,
		Score:    toUint(ev.Data["score"]),
		Paid:     paid,
		PlayedAt: int64(toUint(ev.Data["at"])),
	}
	idx.write("insert game", func(ctx context.Context) error {
		return idx.store.InsertGame(ctx, g)
	})
}

func (idx *Indexer) onRoundFinished(ev events.Event) {
	best, _ := ev.Data["best_player"].(string)
	failed, _ := ev.Data["failed_payouts"].(int)
	r := RoundRecord{
		Number:        toUint(ev.Data["round"]),
		GamesPlayed:   toUint(ev.Data["games_played"]),
		BestPlayer:    best,
		HighestScore:  toUint(ev.Data["highest_score"]),
		Pot:           toUint(ev.Data["pot"]),
		FailedPayouts: failed,
		Seq:           ev.Seq,
	}
	idx.write("upsert round", func(ctx context.Context) error {
		return idx.store.UpsertRound(ctx, r)
	})
}

func (idx *Indexer) onPayout(ev events.Event) {
	role, _ := ev.Data["role"].(string)
	to, _ := ev.Data["to"].(string)
	errMsg, _ := ev.Data["error"].(string)
	p := PayoutRecord{
		Round:  toUint(ev.Data["round"]),
		Role:   role,
		To:     to,
		Amount: toUint(ev.Data["amount"]),
		Paid:   ev.Type == events.EventPrizePaid,
		Error:  errMsg,
	}
	idx.write("insert payout", func(ctx context.Context) error {
		_, err := idx.store.InsertPayout(ctx, p)
		return err
	})
}

// toUint reads a numeric event field. Events published in-process carry
// native integers; events decoded from JSON carry float64.
func toUint(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	}
	return 0
}
