package registry

import (
	"errors"
	"fmt"

	"xyzgrid.io/internal/ledger"
)

// Kind classifies a command failure. Every rejected command carries
// exactly one kind plus a human-readable reason.
type Kind string

const (
	KindOutOfBounds         Kind = "out_of_bounds"
	KindPositionOccupied    Kind = "position_occupied"
	KindUnauthorized        Kind = "unauthorized"
	KindInsufficientPayment Kind = "insufficient_payment"
	KindWrongDenomination   Kind = "wrong_denomination"
	KindNotFound            Kind = "not_found"
	KindSupplyExhausted     Kind = "supply_exhausted"
	KindWalletLimit         Kind = "wallet_limit"
	KindInvalidConfig       Kind = "invalid_config"
	KindInternal            Kind = "internal"
)

type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Reason }

func errf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from any error returned by the
// registry, mapping ledger sentinels onto their registry kinds.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ledger.ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ledger.ErrExists):
		return KindPositionOccupied
	}
	return KindInternal
}
