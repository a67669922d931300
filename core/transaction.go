package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolelom/snakegame/crypto"
)

// TxType identifies the kind of operation a transaction performs.
type TxType string

const (
	TxTransfer    TxType = "transfer"
	TxFund        TxType = "fund"
	TxWithdrawEth TxType = "withdraw_eth"

	TxSnakeAirdrop TxType = "snake_airdrop"
	TxBuySnake     TxType = "buy_snake"
	TxBuyCredits   TxType = "buy_credits"

	TxGameStart TxType = "game_start"
	TxGameOver  TxType = "game_over"

	TxFruitClaim       TxType = "fruit_claim"
	TxFruitToSnakeSwap TxType = "fruit_to_snake_swap"
	TxSnakeNftClaim    TxType = "snake_nft_claim"

	TxCheckSuperNftClaim TxType = "check_super_nft_claim"
	TxSuperPetNftClaim   TxType = "super_pet_nft_claim"

	TxFinishRound TxType = "finish_round"
)

// Transaction is the atomic unit of work on the engine.
// From holds the sender's full hex-encoded ed25519 public key (64 chars).
// Value is the native payment attached to the call; only payable operations
// accept a non-zero Value. Signature covers all fields except ID and Signature.
type Transaction struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"` // hex-encoded ed25519 public key
	Nonce     uint64          `json:"nonce"`
	Value     uint64          `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields that are covered by the signature.
type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Value     uint64          `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns a deterministic hash of the transaction (sans Signature).
// Returns an empty string if marshalling fails (which cannot happen in practice).
func (tx *Transaction) Hash() string {
	body := signingBody{
		ChainID:   tx.ChainID,
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Value:     tx.Value,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign computes the signature and sets ID.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	hash := tx.Hash()
	tx.Signature = crypto.Sign(priv, []byte(hash))
	tx.ID = hash
}

// Verify checks the signature and that From is a valid public key.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(tx.From)
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	return crypto.Verify(pub, []byte(tx.Hash()), tx.Signature)
}

// NewTransaction creates an unsigned transaction with the current timestamp.
func NewTransaction(chainID string, typ TxType, from string, nonce, value uint64, payload any) (*Transaction, error) {
	if payload == nil {
		payload = struct{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Transaction{
		ChainID:   chainID,
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Value:     value,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// ---- Payload types ----

// TransferPayload transfers native currency between accounts.
type TransferPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// WithdrawEthPayload moves native currency out of the engine pot.
type WithdrawEthPayload struct {
	Amount uint64 `json:"amount"`
}

// AmountPayload is shared by buy_snake, buy_credits and fruit_to_snake_swap.
type AmountPayload struct {
	Amount uint64 `json:"amount"`
}

// GameOverPayload settles the caller's in-flight game.
type GameOverPayload struct {
	Score uint64 `json:"score"`
}

// SnakeNftClaimPayload mints pending Snake NFTs. Zero Amount claims all.
type SnakeNftClaimPayload struct {
	Amount uint64 `json:"amount,omitempty"`
}

// SuperPetNftClaimPayload names the Snake NFT ids to burn. When empty the
// lowest owned ids are burned.
type SuperPetNftClaimPayload struct {
	TokenIDs []uint64 `json:"token_ids,omitempty"`
}
