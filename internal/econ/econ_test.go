package econ

import (
	"math"
	"testing"

	"xyzgrid.io/internal/grid"
)

func testConfig() Config {
	return Config{
		PublicMintingEnabled: true,
		MaxCoordinateValue:   1000,
		TokenSupply:          10000,
		WalletLimit:          10,
		MintFee:              Coin{Denom: "tokens", Amount: 50},
		BaseMoveNanos:        1000,
		MoveNanosPerStep:     500,
		BaseMoveFee:          Coin{Denom: "tokens", Amount: 10},
		MoveFeePerStep:       2,
	}
}

func TestMoveFeeAndDuration(t *testing.T) {
	cfg := testConfig()
	start := grid.Coord{}
	end := grid.Coord{X: 3, Y: 1} // distance 4

	fee, err := cfg.MoveFee(start, end)
	if err != nil {
		t.Fatalf("MoveFee: %v", err)
	}
	if fee.Amount != 18 || fee.Denom != "tokens" {
		t.Fatalf("fee=%v want 18tokens", fee)
	}

	nanos, err := cfg.MoveNanos(start, end)
	if err != nil {
		t.Fatalf("MoveNanos: %v", err)
	}
	if nanos != 3000 {
		t.Fatalf("nanos=%d want 3000", nanos)
	}
}

func TestMoveFeeZeroDistanceChargesBase(t *testing.T) {
	cfg := testConfig()
	at := grid.Coord{X: 5, Y: -5, Z: 5}
	fee, err := cfg.MoveFee(at, at)
	if err != nil {
		t.Fatalf("MoveFee: %v", err)
	}
	if fee.Amount != cfg.BaseMoveFee.Amount {
		t.Fatalf("zero-distance fee=%d want base %d", fee.Amount, cfg.BaseMoveFee.Amount)
	}
}

func TestMoveFeeMonotonic(t *testing.T) {
	cfg := testConfig()
	start := grid.Coord{}
	var prevFee, prevNanos uint64
	for step := int64(0); step <= 20; step++ {
		end := grid.Coord{X: step}
		fee, err := cfg.MoveFee(start, end)
		if err != nil {
			t.Fatalf("MoveFee: %v", err)
		}
		nanos, err := cfg.MoveNanos(start, end)
		if err != nil {
			t.Fatalf("MoveNanos: %v", err)
		}
		if fee.Amount < prevFee || nanos < prevNanos {
			t.Fatalf("not monotonic at step %d: fee %d<%d or nanos %d<%d",
				step, fee.Amount, prevFee, nanos, prevNanos)
		}
		prevFee, prevNanos = fee.Amount, nanos
	}
}

func TestValidate(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := cfg
	bad.MaxCoordinateValue = -1
	if err := bad.Validate(); err == nil {
		t.Fatalf("negative max accepted")
	}

	bad = cfg
	bad.MintFee.Denom = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("empty denom accepted")
	}

	// Worst-case fee must be computable without wraparound.
	bad = cfg
	bad.MaxCoordinateValue = math.MaxInt64
	bad.MoveFeePerStep = math.MaxUint64
	if err := bad.Validate(); err == nil {
		t.Fatalf("overflowing config accepted")
	}
}
