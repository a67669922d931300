package core

import (
	"errors"
	"fmt"
)

// ShareDenominator is the divisor applied to the prize share numerators.
const ShareDenominator = 10

// NativeDecimals is the number of decimals between one ether and the native
// base unit used for every balance in the engine (gwei).
const NativeDecimals = 9

// Params holds the economic constants of the game. They are fixed for the
// lifetime of a chain; only the config file sets them.
type Params struct {
	Operator  string `json:"operator"`  // pubkey hex allowed to finish rounds and withdraw
	Developer string `json:"developer"` // receives the developer share; defaults to Operator

	AirdropAmount        uint64 `json:"airdrop_amount"`           // SNAKE granted once per player
	CreditBasePrice      uint64 `json:"credit_base_price"`        // SNAKE per game credit
	SnakePrice           uint64 `json:"snake_price"`              // native units per SNAKE
	FruitSnakeRate       uint64 `json:"fruit_snake_rate"`         // FRUIT per SNAKE in swaps
	SnakeNftFee          uint64 `json:"snake_nft_fee"`            // FRUIT burned per Snake NFT
	SuperNftFee          uint64 `json:"super_nft_fee"`            // native units per Super Pet NFT
	ScoreToClaimSnakeNft uint64 `json:"score_to_claim_snake_nft"` // minimum score unlocking a Snake NFT
	SnakeNftsRequired    uint64 `json:"snake_nfts_required"`      // Snake NFTs burned per Super Pet NFT
	MaxSnakeNfts         uint64 `json:"max_snake_nfts"`
	MaxSuperNfts         uint64 `json:"max_super_nfts"`

	RoundBestShare uint64 `json:"round_best_share"` // tenths of the pot
	BestEverShare  uint64 `json:"best_ever_share"`
	DeveloperShare uint64 `json:"developer_share"`

	SnakeNftURIs    []string `json:"snake_nft_uris"`
	SuperPetNftURIs []string `json:"super_pet_nft_uris"`
}

// DefaultParams returns the constants the game launched with.
func DefaultParams() Params {
	return Params{
		AirdropAmount:        10,
		CreditBasePrice:      5,
		SnakePrice:           10_000_000, // 0.01 ETH
		FruitSnakeRate:       20,
		SnakeNftFee:          100,
		SuperNftFee:          100_000_000, // 0.1 ETH
		ScoreToClaimSnakeNft: 50,
		SnakeNftsRequired:    10,
		MaxSnakeNfts:         40,
		MaxSuperNfts:         3,
		RoundBestShare:       7,
		BestEverShare:        2,
		DeveloperShare:       1,
	}
}

// Validate rejects parameter sets the engine cannot operate with.
func (p Params) Validate() error {
	if p.Operator == "" {
		return errors.New("operator is required")
	}
	if p.SnakePrice == 0 {
		return errors.New("snake price must be > 0")
	}
	if p.CreditBasePrice == 0 {
		return errors.New("credit base price must be > 0")
	}
	if p.FruitSnakeRate == 0 {
		return errors.New("fruit/snake rate must be > 0")
	}
	if p.SnakeNftsRequired == 0 {
		return errors.New("snake nfts required must be > 0")
	}
	if sum := p.RoundBestShare + p.BestEverShare + p.DeveloperShare; sum > ShareDenominator {
		return fmt.Errorf("prize shares sum to %d, max %d", sum, ShareDenominator)
	}
	return nil
}

// DeveloperAddress returns the account receiving the developer share.
func (p Params) DeveloperAddress() string {
	if p.Developer != "" {
		return p.Developer
	}
	return p.Operator
}

// CreditPrice is the SNAKE price of one game credit for a holder of
// superNfts Super Pet NFTs. It never drops below 1.
func (p Params) CreditPrice(superNfts uint64) uint64 {
	if superNfts >= p.CreditBasePrice {
		return 1
	}
	return p.CreditBasePrice - superNfts
}
