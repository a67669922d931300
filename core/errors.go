package core

import (
	"errors"
	"math/bits"
)

// ErrNotFound is returned when a requested object does not exist in storage.
var ErrNotFound = errors.New("not found")

// ErrCommitFailed wraps a storage failure while flushing a transaction. The
// transaction was rolled back and may be resubmitted unchanged.
var ErrCommitFailed = errors.New("commit failed")

// Engine errors. Handlers wrap these with context; callers match with errors.Is
// or translate them to a stable name with Kind.
var (
	ErrNoGameCredits       = errors.New("no game credits")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrGameNotStarted      = errors.New("game not started")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIncorrectAmount     = errors.New("incorrect amount")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrNoFruitToClaim      = errors.New("no fruit tokens to claim")
	ErrNoSnakeNftsToClaim  = errors.New("no snake nfts to claim")
	ErrNoSuperNftToClaim   = errors.New("no super nft to claim")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrEthWithdrawalFailed = errors.New("eth withdrawal failed")
	ErrTransferRejected    = errors.New("recipient rejects payments")
	ErrAirdropClaimed      = errors.New("snake airdrop already claimed")
	ErrInvalidNonce        = errors.New("invalid nonce")
	ErrNotPayable          = errors.New("operation does not accept payment")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrOverflow            = errors.New("arithmetic overflow")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNoGameCredits, "NoGameCredits"},
	{ErrGameAlreadyStarted, "GameAlreadyStarted"},
	{ErrGameNotStarted, "GameNotStarted"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrIncorrectAmount, "IncorrectAmount"},
	{ErrInsufficientPayment, "InsufficientPayment"},
	{ErrNoFruitToClaim, "NoFruitTokensToClaim"},
	{ErrNoSnakeNftsToClaim, "NoSnakeNftsToClaim"},
	{ErrNoSuperNftToClaim, "NoSuperNftToClaim"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrEthWithdrawalFailed, "EthWithdrawalFailed"},
	{ErrTransferRejected, "TransferRejected"},
	{ErrAirdropClaimed, "AirdropAlreadyClaimed"},
	{ErrInvalidNonce, "InvalidNonce"},
	{ErrNotPayable, "NotPayable"},
	{ErrInvalidPayload, "InvalidPayload"},
	{ErrOverflow, "Overflow"},
	{ErrNotFound, "NotFound"},
}

// Kind returns the stable name of the engine error wrapped by err, or
// "Internal" for anything else (storage failures, bugs).
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

// SafeAdd returns a+b or ErrOverflow.
func SafeAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SafeMul returns a*b or ErrOverflow.
func SafeMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}
