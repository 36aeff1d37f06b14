package protocol

import "xyzgrid.io/internal/registry"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command/query layer.
	ErrOutOfBounds         = "E_OUT_OF_BOUNDS"
	ErrPositionOccupied    = "E_POSITION_OCCUPIED"
	ErrUnauthorized        = "E_UNAUTHORIZED"
	ErrInsufficientPayment = "E_INSUFFICIENT_PAYMENT"
	ErrWrongDenomination   = "E_WRONG_DENOMINATION"
	ErrNotFound            = "E_NOT_FOUND"
	ErrSupplyExhausted     = "E_SUPPLY_EXHAUSTED"
	ErrWalletLimit         = "E_WALLET_LIMIT"
	ErrInvalidConfig       = "E_INVALID_CONFIG"
	ErrInternal            = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:     {},
	ErrOutOfBounds:         {},
	ErrPositionOccupied:    {},
	ErrUnauthorized:        {},
	ErrInsufficientPayment: {},
	ErrWrongDenomination:   {},
	ErrNotFound:            {},
	ErrSupplyExhausted:     {},
	ErrWalletLimit:         {},
	ErrInvalidConfig:       {},
	ErrInternal:            {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

var kindCodes = map[registry.Kind]string{
	registry.KindOutOfBounds:         ErrOutOfBounds,
	registry.KindPositionOccupied:    ErrPositionOccupied,
	registry.KindUnauthorized:        ErrUnauthorized,
	registry.KindInsufficientPayment: ErrInsufficientPayment,
	registry.KindWrongDenomination:   ErrWrongDenomination,
	registry.KindNotFound:            ErrNotFound,
	registry.KindSupplyExhausted:     ErrSupplyExhausted,
	registry.KindWalletLimit:         ErrWalletLimit,
	registry.KindInvalidConfig:       ErrInvalidConfig,
}

// CodeFor maps a registry error onto its wire code.
func CodeFor(err error) string {
	if code, ok := kindCodes[registry.KindOf(err)]; ok {
		return code
	}
	return ErrInternal
}
