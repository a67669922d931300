package config

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/tolelom/snakegame/core"
)

// EconomyConfig is the human-editable form of core.Params. Native amounts
// are decimal ether strings ("0.01").
type EconomyConfig struct {
	Operator  string `json:"operator"`
	Developer string `json:"developer,omitempty"`

	AirdropAmount        uint64 `json:"airdrop_amount"`
	CreditBasePrice      uint64 `json:"credit_base_price"`
	SnakePrice           string `json:"snake_price"`
	FruitSnakeRate       uint64 `json:"fruit_snake_rate"`
	SnakeNftFee          uint64 `json:"snake_nft_fee"`
	SuperNftFee          string `json:"super_nft_fee"`
	ScoreToClaimSnakeNft uint64 `json:"score_to_claim_snake_nft"`
	SnakeNftsRequired    uint64 `json:"snake_nfts_required"`
	MaxSnakeNfts         uint64 `json:"max_snake_nfts"`
	MaxSuperNfts         uint64 `json:"max_super_nfts"`

	RoundBestShare uint64 `json:"round_best_share"`
	BestEverShare  uint64 `json:"best_ever_share"`
	DeveloperShare uint64 `json:"developer_share"`

	SnakeNftURIs    []string `json:"snake_nft_uris,omitempty"`
	SuperPetNftURIs []string `json:"super_pet_nft_uris,omitempty"`
}

// DefaultEconomy mirrors core.DefaultParams.
func DefaultEconomy() EconomyConfig {
	p := core.DefaultParams()
	return EconomyConfig{
		AirdropAmount:        p.AirdropAmount,
		CreditBasePrice:      p.CreditBasePrice,
		SnakePrice:           FormatNative(p.SnakePrice),
		FruitSnakeRate:       p.FruitSnakeRate,
		SnakeNftFee:          p.SnakeNftFee,
		SuperNftFee:          FormatNative(p.SuperNftFee),
		ScoreToClaimSnakeNft: p.ScoreToClaimSnakeNft,
		SnakeNftsRequired:    p.SnakeNftsRequired,
		MaxSnakeNfts:         p.MaxSnakeNfts,
		MaxSuperNfts:         p.MaxSuperNfts,
		RoundBestShare:       p.RoundBestShare,
		BestEverShare:        p.BestEverShare,
		DeveloperShare:       p.DeveloperShare,
	}
}

// Params converts the economy section into validated engine parameters.
func (e EconomyConfig) Params() (core.Params, error) {
	snakePrice, err := ParseNative(e.SnakePrice)
	if err != nil {
		return core.Params{}, fmt.Errorf("snake_price: %w", err)
	}
	superFee, err := ParseNative(e.SuperNftFee)
	if err != nil {
		return core.Params{}, fmt.Errorf("super_nft_fee: %w", err)
	}
	p := core.Params{
		Operator:             e.Operator,
		Developer:            e.Developer,
		AirdropAmount:        e.AirdropAmount,
		CreditBasePrice:      e.CreditBasePrice,
		SnakePrice:           snakePrice,
		FruitSnakeRate:       e.FruitSnakeRate,
		SnakeNftFee:          e.SnakeNftFee,
		SuperNftFee:          superFee,
		ScoreToClaimSnakeNft: e.ScoreToClaimSnakeNft,
		SnakeNftsRequired:    e.SnakeNftsRequired,
		MaxSnakeNfts:         e.MaxSnakeNfts,
		MaxSuperNfts:         e.MaxSuperNfts,
		RoundBestShare:       e.RoundBestShare,
		BestEverShare:        e.BestEverShare,
		DeveloperShare:       e.DeveloperShare,
		SnakeNftURIs:         e.SnakeNftURIs,
		SuperPetNftURIs:      e.SuperPetNftURIs,
	}
	if err := p.Validate(); err != nil {
		return core.Params{}, err
	}
	return p, nil
}

var maxNative = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// ParseNative converts a decimal ether string into native base units.
func ParseNative(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	units := d.Shift(core.NativeDecimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, core.NativeDecimals)
	}
	if units.GreaterThan(maxNative) {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return units.BigInt().Uint64(), nil
}

// FormatNative renders native base units as a decimal ether string.
func FormatNative(units uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -core.NativeDecimals).String()
}
