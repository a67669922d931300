package core

// EngineAddress is the custodial account holding the prize pot and receiving
// every native payment attached to a transaction.
const EngineAddress = "snakegame"

// Fungible token symbols.
const (
	TokenSnake = "SNAKE"
	TokenFruit = "FRUIT"
)

// NFT collection identifiers.
const (
	CollectionSnakeNft    = "SNFT"
	CollectionSuperPetNft = "SPET"
)

// Account holds a participant's native balance and replay-protection nonce.
// Address is the hex-encoded ed25519 public key.
type Account struct {
	Address         string `json:"address"` // pubkey hex
	Balance         uint64 `json:"balance"` // native base units
	Nonce           uint64 `json:"nonce"`
	RejectsPayments bool   `json:"rejects_payments,omitempty"` // incoming native transfers fail
}

// Player is the per-address game record.
type Player struct {
	Address           string `json:"address"`
	GameCredits       uint64 `json:"game_credits"`
	FreeCredits       uint64 `json:"free_credits"` // subset of GameCredits bought with airdropped SNAKE
	GameStarted       bool   `json:"game_started"`
	PaidGame          bool   `json:"paid_game"` // in-flight game consumed a purchased credit
	SnakeAirdropped   bool   `json:"snake_airdropped"`
	AirdropSnake      uint64 `json:"airdrop_snake"` // unspent airdropped SNAKE
	FruitToClaim      uint64 `json:"fruit_to_claim"`
	SnakeNftsToClaim  uint64 `json:"snake_nfts_to_claim"`
	SuperNftClaimable bool   `json:"super_nft_claimable"`

	Stats PlayerStats `json:"stats"`
}

// PaidCredits returns the credits bought with purchased SNAKE.
func (p *Player) PaidCredits() uint64 {
	return p.GameCredits - p.FreeCredits
}

// PlayerStats are lifetime counters. All fields except LastScore only grow.
type PlayerStats struct {
	GamesPlayed     uint64 `json:"games_played"`
	LastScore       uint64 `json:"last_score"`
	BestScore       uint64 `json:"best_score"`
	FruitsCollected uint64 `json:"fruits_collected"`
	SnakeNftsAmount uint64 `json:"snake_nfts_amount"`
	SuperNftsAmount uint64 `json:"super_nfts_amount"`
}

// Payout roles.
const (
	RoleRoundBest = "round_best"
	RoleBestEver  = "best_ever"
	RoleDeveloper = "developer"
)

// Payout records one share of a prize distribution.
type Payout struct {
	Role        string `json:"role"`
	Beneficiary string `json:"beneficiary"` // empty when the role had no holder
	Amount      uint64 `json:"amount"`
	Paid        bool   `json:"paid"`
	Error       string `json:"error,omitempty"`
}

// GameRound aggregates the games settled between two round finishes.
type GameRound struct {
	Number       uint64   `json:"number"`
	GamesPlayed  uint64   `json:"games_played"`
	BestPlayer   string   `json:"best_player"`
	HighestScore uint64   `json:"highest_score"`
	StartedAt    int64    `json:"started_at"`
	FinishedAt   int64    `json:"finished_at,omitempty"` // zero while current
	Payouts      []Payout `json:"payouts,omitempty"`
}

// Finished reports whether the round has been archived.
func (r *GameRound) Finished() bool {
	return r.FinishedAt != 0
}

// GlobalState is the process-wide singleton.
type GlobalState struct {
	CurrentRound     uint64 `json:"current_round"`
	GamesPlayedTotal uint64 `json:"games_played_total"`
	HighestScoreEver uint64 `json:"highest_score_ever"`
	BestPlayerEver   string `json:"best_player_ever"`
	Sequence         uint64 `json:"sequence"` // committed transactions
}

// Nft is a single collectible token.
type Nft struct {
	Collection string `json:"collection"`
	ID         uint64 `json:"id"`
	Owner      string `json:"owner"`
	URI        string `json:"uri"`
	MintedAt   int64  `json:"minted_at"`
}

// Collection tracks id allocation and live supply for an NFT collection.
type Collection struct {
	ID     string `json:"id"`
	NextID uint64 `json:"next_id"` // ids start at 1
	Supply uint64 `json:"supply"`
}

// State is the full engine state interface. Implementations must be
// snapshot-able so the executor can roll back failed transactions.
// Getters for keyed records return a zero-valued record when absent, except
// GetNft and GetRound which return ErrNotFound.
type State interface {
	// Accounts
	GetAccount(address string) (*Account, error)
	SetAccount(account *Account) error

	// Players
	GetPlayer(address string) (*Player, error)
	SetPlayer(p *Player) error

	// Rounds
	GetRound(number uint64) (*GameRound, error)
	SetRound(r *GameRound) error

	// Global
	GetGlobal() (*GlobalState, error)
	SetGlobal(g *GlobalState) error

	// Fungible tokens
	GetTokenBalance(token, owner string) (uint64, error)
	SetTokenBalance(token, owner string, amount uint64) error
	GetTokenSupply(token string) (uint64, error)
	SetTokenSupply(token string, amount uint64) error

	// NFTs
	GetCollection(id string) (*Collection, error)
	SetCollection(c *Collection) error
	GetNft(collection string, id uint64) (*Nft, error)
	SetNft(n *Nft) error
	DeleteNft(collection string, id uint64) error
	// OwnedNfts returns the ids owner holds in collection, ascending.
	OwnedNfts(collection, owner string) ([]uint64, error)

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// StateRoot hashes the complete state, write buffer included, without
	// flushing it.
	StateRoot() (string, error)
	// Commit flushes the write buffer to the underlying DB and clears it.
	Commit() error
}
