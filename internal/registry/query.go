package registry

import (
	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/grid"
)

// Queries never mutate.

// Config returns the current configuration and its version.
func (r *Registry) Config() (econ.Config, uint64) { return r.cfg, r.cfgVersion }

func (r *Registry) CaptchaPublicKey() string { return r.captchaPublicKey }

// Balance returns the collected, unwithdrawn fees in one denom.
func (r *Registry) Balance(denom string) uint64 { return r.balances[denom] }

// XyzTokens lists owner's tokens with their spatial state, in id order.
func (r *Registry) XyzTokens(owner, startAfter string, limit uint32) []Token {
	return r.collect(r.ledger.Tokens(owner, startAfter, limit))
}

// AllXyzTokens lists every token with its spatial state, in id order.
func (r *Registry) AllXyzTokens(startAfter string, limit uint32) []Token {
	return r.collect(r.ledger.AllTokens(startAfter, limit))
}

func (r *Registry) collect(ids []string) []Token {
	out := make([]Token, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.ledger.Get(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// XyzNftInfo returns one token with its spatial state.
func (r *Registry) XyzNftInfo(tokenID string) (Token, error) {
	t, ok := r.ledger.Get(tokenID)
	if !ok {
		return Token{}, errf(KindNotFound, "token %s does not exist", tokenID)
	}
	return t, nil
}

// XyzNftInfoByCoords resolves the token occupying coords, if any.
func (r *Registry) XyzNftInfoByCoords(coords grid.Coord) (Token, error) {
	id, ok := r.byPos[coords]
	if !ok {
		return Token{}, errf(KindNotFound, "no token at %s", coords)
	}
	return r.XyzNftInfo(id)
}

// NumTokensForOwner counts owner's tokens.
func (r *Registry) NumTokensForOwner(owner string) uint64 {
	return r.ledger.CountForOwner(owner)
}

// MoveParams quotes the fee and duration of moving a token to coords
// without committing anything.
func (r *Registry) MoveParams(tokenID string, coords grid.Coord) (econ.Coin, uint64, error) {
	t, ok := r.ledger.Get(tokenID)
	if !ok {
		return econ.Coin{}, 0, errf(KindNotFound, "token %s does not exist", tokenID)
	}
	fee, err := r.cfg.MoveFee(t.Extension.Coordinates, coords)
	if err != nil {
		return econ.Coin{}, 0, errf(KindInternal, "%v", err)
	}
	nanos, err := r.cfg.MoveNanos(t.Extension.Coordinates, coords)
	if err != nil {
		return econ.Coin{}, 0, errf(KindInternal, "%v", err)
	}
	return fee, nanos, nil
}
