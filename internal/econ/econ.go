// Package econ holds the registry's economic configuration and the pure
// fee/duration formulas derived from it.
package econ

import (
	"errors"
	"fmt"
	"math/bits"

	"xyzgrid.io/internal/grid"
)

// Coin is an amount of a single denomination.
type Coin struct {
	Denom  string `json:"denom" yaml:"denom"`
	Amount uint64 `json:"amount" yaml:"amount"`
}

func (c Coin) String() string {
	return fmt.Sprintf("%d%s", c.Amount, c.Denom)
}

// Config is the process-wide parameter set. It is set at genesis and only
// ever replaced wholesale; Version increments on each replacement.
type Config struct {
	// If true anyone can mint; otherwise only the registry owner.
	PublicMintingEnabled bool `json:"public_minting_enabled" yaml:"public_minting_enabled"`
	// Coordinates are valid in [-MaxCoordinateValue, MaxCoordinateValue]
	// on every axis.
	MaxCoordinateValue int64 `json:"max_coordinate_value" yaml:"max_coordinate_value"`
	// Maximum number of tokens that may ever exist.
	TokenSupply uint64 `json:"token_supply" yaml:"token_supply"`
	// Maximum number of tokens a single wallet can hold.
	WalletLimit uint32 `json:"wallet_limit" yaml:"wallet_limit"`
	// Price to mint a token. Not charged to the registry owner.
	MintFee Coin `json:"mint_fee" yaml:"mint_fee"`
	// Move time: BaseMoveNanos + MoveNanosPerStep * distance.
	BaseMoveNanos    uint64 `json:"base_move_nanos" yaml:"base_move_nanos"`
	MoveNanosPerStep uint64 `json:"move_nanos_per_step" yaml:"move_nanos_per_step"`
	// Move fee: BaseMoveFee.Amount + MoveFeePerStep * distance, in
	// BaseMoveFee.Denom.
	BaseMoveFee    Coin   `json:"base_move_fee" yaml:"base_move_fee"`
	MoveFeePerStep uint64 `json:"move_fee_per_step" yaml:"move_fee_per_step"`
}

// maxDistance is the largest distance two in-bounds coordinates can be
// apart: three axes, each spanning at most 2*max.
func (c Config) maxDistance() (uint64, error) {
	span := uint64(c.MaxCoordinateValue)
	hi, lo := bits.Mul64(span, 6)
	if hi != 0 {
		return 0, errors.New("max_coordinate_value too large: worst-case distance overflows")
	}
	return lo, nil
}

// Validate rejects configurations whose worst-case fee or duration cannot
// be computed exactly. Every accepted config is guaranteed to never
// overflow MoveFee or MoveNanos for in-bounds coordinates.
func (c Config) Validate() error {
	if c.MaxCoordinateValue < 0 {
		return fmt.Errorf("max_coordinate_value must be non-negative, got %d", c.MaxCoordinateValue)
	}
	if c.MintFee.Denom == "" || c.BaseMoveFee.Denom == "" {
		return errors.New("fee denominations must be set")
	}
	d, err := c.maxDistance()
	if err != nil {
		return err
	}
	if _, err := feeAmount(c.BaseMoveFee.Amount, c.MoveFeePerStep, d); err != nil {
		return fmt.Errorf("worst-case move fee: %w", err)
	}
	if _, err := feeAmount(c.BaseMoveNanos, c.MoveNanosPerStep, d); err != nil {
		return fmt.Errorf("worst-case move duration: %w", err)
	}
	return nil
}

func feeAmount(base, perStep, distance uint64) (uint64, error) {
	hi, lo := bits.Mul64(perStep, distance)
	if hi != 0 {
		return 0, errors.New("step total overflows")
	}
	sum, carry := bits.Add64(base, lo, 0)
	if carry != 0 {
		return 0, errors.New("total overflows")
	}
	return sum, nil
}

// MoveFee prices a move from start to end. Pure and exact: integer
// arithmetic only, error instead of wraparound.
func (c Config) MoveFee(start, end grid.Coord) (Coin, error) {
	d, err := grid.Manhattan(start, end)
	if err != nil {
		return Coin{}, err
	}
	amt, err := feeAmount(c.BaseMoveFee.Amount, c.MoveFeePerStep, d)
	if err != nil {
		return Coin{}, fmt.Errorf("move fee for %s -> %s: %w", start, end, err)
	}
	return Coin{Denom: c.BaseMoveFee.Denom, Amount: amt}, nil
}

// MoveNanos returns the travel time in nanoseconds for a move from start
// to end.
func (c Config) MoveNanos(start, end grid.Coord) (uint64, error) {
	d, err := grid.Manhattan(start, end)
	if err != nil {
		return 0, err
	}
	n, err := feeAmount(c.BaseMoveNanos, c.MoveNanosPerStep, d)
	if err != nil {
		return 0, fmt.Errorf("move duration for %s -> %s: %w", start, end, err)
	}
	return n, nil
}
