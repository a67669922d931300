package events

import (
	"log"
	"sync"
)

// EventType labels what happened.
type EventType string

const (
	EventTxExecuted    EventType = "tx_executed"
	EventTokenTransfer EventType = "token_transfer"
	EventFunded        EventType = "funded"
	EventEthWithdrawn  EventType = "eth_withdrawn"

	EventSnakeAirdrop  EventType = "snake_airdrop"
	EventSnakeBought   EventType = "snake_bought"
	EventCreditsBought EventType = "credits_bought"

	EventGameStarted EventType = "game_started"
	EventGameOver    EventType = "game_over"

	EventFruitClaimed       EventType = "fruit_claimed"
	EventFruitSwapped       EventType = "fruit_swapped"
	EventSnakeNftUnlocked   EventType = "snake_nft_unlocked"
	EventMaxSnakeNfts       EventType = "max_snake_nfts_claimed"
	EventSnakeNftClaimed    EventType = "snake_nft_claimed"
	EventSuperNftUnlocked   EventType = "super_nft_unlocked"
	EventMaxSuperNfts       EventType = "max_super_nfts_claimed"
	EventSuperPetNftClaimed EventType = "super_pet_nft_claimed"

	EventNewRoundRecord      EventType = "new_round_record"
	EventRoundFinished       EventType = "round_finished"
	EventPrizePaid           EventType = "prize_paid"
	EventPrizeTransferFailed EventType = "prize_transfer_failed"
)

// Event carries a typed payload emitted after a state change has been
// committed. Seq is the sequence number of the committing transaction.
type Event struct {
	Type EventType      `json:"type"`
	TxID string         `json:"tx_id"`
	Seq  uint64         `json:"seq"`
	Data map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously, then to the
// catch-all subscribers. Each handler is guarded by panic recovery so a
// misbehaving subscriber cannot halt transaction processing.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := append(append([]Handler(nil), e.handlers[ev.Type]...), e.all...)
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[events] handler panicked for %s: %v", ev.Type, r)
				}
			}()
			h(ev)
		}()
	}
}
