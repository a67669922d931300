package wallet

import (
	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/crypto"
)

// Wallet holds a key pair and provides transaction-building helpers for
// every engine operation.
type Wallet struct {
	priv    crypto.PrivateKey
	pub     crypto.PublicKey
	chainID string
}

// New creates a Wallet from an existing private key, signing for chainID.
func New(priv crypto.PrivateKey, chainID string) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public(), chainID: chainID}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate(chainID string) (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv, chainID), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key (the player address).
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// NewTx creates a signed transaction. nonce should match the account's
// current nonce; value is the attached native payment.
func (w *Wallet) NewTx(typ core.TxType, nonce, value uint64, payload any) (*core.Transaction, error) {
	tx, err := core.NewTransaction(w.chainID, typ, w.pub.Hex(), nonce, value, payload)
	if err != nil {
		return nil, err
	}
	tx.Sign(w.priv)
	return tx, nil
}

// Transfer creates a signed native transfer.
func (w *Wallet) Transfer(to string, amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxTransfer, nonce, 0, core.TransferPayload{To: to, Amount: amount})
}

// Fund pays amount into the prize pot.
func (w *Wallet) Fund(amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxFund, nonce, amount, nil)
}

// SnakeAirdrop claims the one-time SNAKE airdrop.
func (w *Wallet) SnakeAirdrop(nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxSnakeAirdrop, nonce, 0, nil)
}

// BuySnake buys amount SNAKE, attaching payment.
func (w *Wallet) BuySnake(amount, payment, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxBuySnake, nonce, payment, core.AmountPayload{Amount: amount})
}

// BuyCredits buys amount game credits with SNAKE.
func (w *Wallet) BuyCredits(amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxBuyCredits, nonce, 0, core.AmountPayload{Amount: amount})
}

// GameStart starts a game.
func (w *Wallet) GameStart(nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxGameStart, nonce, 0, nil)
}

// GameOver submits the score of the in-flight game.
func (w *Wallet) GameOver(score, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxGameOver, nonce, 0, core.GameOverPayload{Score: score})
}

// FruitClaim mints the pending FRUIT.
func (w *Wallet) FruitClaim(nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxFruitClaim, nonce, 0, nil)
}

// FruitToSnakeSwap swaps amount FRUIT for SNAKE.
func (w *Wallet) FruitToSnakeSwap(amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxFruitToSnakeSwap, nonce, 0, core.AmountPayload{Amount: amount})
}

// SnakeNftClaim mints amount pending Snake NFTs; zero claims all.
func (w *Wallet) SnakeNftClaim(amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxSnakeNftClaim, nonce, 0, core.SnakeNftClaimPayload{Amount: amount})
}

// CheckSuperNftClaim re-evaluates Super Pet eligibility.
func (w *Wallet) CheckSuperNftClaim(nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxCheckSuperNftClaim, nonce, 0, nil)
}

// SuperPetNftClaim claims a Super Pet NFT, burning tokenIDs (or the lowest
// owned Snake NFTs when empty) and attaching payment.
func (w *Wallet) SuperPetNftClaim(tokenIDs []uint64, payment, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxSuperPetNftClaim, nonce, payment, core.SuperPetNftClaimPayload{TokenIDs: tokenIDs})
}

// FinishRound closes the current round. Operator only.
func (w *Wallet) FinishRound(nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxFinishRound, nonce, 0, nil)
}

// WithdrawEth withdraws amount from the pot; zero withdraws everything.
// Operator only.
func (w *Wallet) WithdrawEth(amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxWithdrawEth, nonce, 0, core.WithdrawEthPayload{Amount: amount})
}
