package registry

import (
	"math/bits"

	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/grid"
)

type MintReceipt struct {
	TokenID     string      `json:"token_id"`
	Coordinates grid.Coord  `json:"coordinates"`
	Refund      []econ.Coin `json:"refund,omitempty"`
}

type MoveReceipt struct {
	TokenID       string      `json:"token_id"`
	Fee           econ.Coin   `json:"fee"`
	DurationNanos uint64      `json:"duration_nanos"`
	Arrival       uint64      `json:"arrival"`
	Refund        []econ.Coin `json:"refund,omitempty"`
}

// checkPayment validates funds against fee without touching state. Any
// coin in a foreign denom rejects the command outright; excess in the fee
// denom becomes an explicit refund.
func checkPayment(funds []econ.Coin, fee econ.Coin) (refund []econ.Coin, err error) {
	var paid uint64
	for _, c := range funds {
		if c.Denom != fee.Denom {
			return nil, errf(KindWrongDenomination,
				"fee is payable in %s, got %s", fee.Denom, c.Denom)
		}
		sum, carry := bits.Add64(paid, c.Amount, 0)
		if carry != 0 {
			return nil, errf(KindInsufficientPayment, "payment amount overflows")
		}
		paid = sum
	}
	if paid < fee.Amount {
		return nil, errf(KindInsufficientPayment,
			"fee is %s, received %d%s", fee, paid, fee.Denom)
	}
	if excess := paid - fee.Amount; excess > 0 {
		refund = []econ.Coin{{Denom: fee.Denom, Amount: excess}}
	}
	return refund, nil
}

func (r *Registry) creditFee(fee econ.Coin) {
	if fee.Amount > 0 {
		r.balances[fee.Denom] += fee.Amount
	}
}

// Mint creates a new idle token at coords for sender. The mint fee is
// waived for the registry owner; everyone else pays cfg.MintFee and needs
// public minting enabled plus a valid proof.
func (r *Registry) Mint(sender string, funds []econ.Coin, now uint64, coords grid.Coord, proof string) (MintReceipt, error) {
	if err := grid.CheckBounds(coords, r.cfg.MaxCoordinateValue); err != nil {
		return MintReceipt{}, errf(KindOutOfBounds, "%v", err)
	}
	if holder, ok := r.byPos[coords]; ok {
		return MintReceipt{}, errf(KindPositionOccupied,
			"position %s is occupied by %s", coords, holder)
	}
	privileged := sender == r.owner
	if !privileged && !r.cfg.PublicMintingEnabled {
		return MintReceipt{}, errf(KindUnauthorized,
			"public minting is disabled; only %s may mint", r.owner)
	}
	if r.verifier != nil {
		if err := r.verifier.Verify(sender, coords, proof); err != nil {
			return MintReceipt{}, errf(KindUnauthorized, "mint proof rejected: %v", err)
		}
	}
	if r.ledger.NumTokens() >= r.cfg.TokenSupply {
		return MintReceipt{}, errf(KindSupplyExhausted,
			"token supply of %d reached", r.cfg.TokenSupply)
	}
	if r.ledger.CountForOwner(sender) >= uint64(r.cfg.WalletLimit) {
		return MintReceipt{}, errf(KindWalletLimit,
			"%s already holds the wallet limit of %d tokens", sender, r.cfg.WalletLimit)
	}

	fee := r.cfg.MintFee
	if privileged {
		fee = econ.Coin{Denom: r.cfg.MintFee.Denom}
	}
	refund, err := checkPayment(funds, fee)
	if err != nil {
		return MintReceipt{}, err
	}

	// All validation passed; commit.
	id := r.newTokenID()
	if err := r.ledger.MintToken(id, sender, Extension{Coordinates: coords, Arrival: now}); err != nil {
		return MintReceipt{}, err
	}
	r.byPos[coords] = id
	r.creditFee(fee)
	return MintReceipt{TokenID: id, Coordinates: coords, Refund: refund}, nil
}

// Move relocates a token. An in-transit token may be moved again; the fee
// and duration always derive from the committed position, not from where
// the token visually "is" mid-flight.
func (r *Registry) Move(sender string, funds []econ.Coin, now uint64, tokenID string, dest grid.Coord) (MoveReceipt, error) {
	if err := r.ledger.Authorize(sender, tokenID, now); err != nil {
		return MoveReceipt{}, err
	}
	tok, _ := r.ledger.Get(tokenID)
	cur := tok.Extension.Coordinates

	if err := grid.CheckBounds(dest, r.cfg.MaxCoordinateValue); err != nil {
		return MoveReceipt{}, errf(KindOutOfBounds, "%v", err)
	}
	if holder, ok := r.byPos[dest]; ok && holder != tokenID {
		return MoveReceipt{}, errf(KindPositionOccupied,
			"position %s is occupied by %s", dest, holder)
	}

	fee, err := r.cfg.MoveFee(cur, dest)
	if err != nil {
		return MoveReceipt{}, errf(KindInternal, "%v", err)
	}
	refund, err := checkPayment(funds, fee)
	if err != nil {
		return MoveReceipt{}, err
	}
	duration, err := r.cfg.MoveNanos(cur, dest)
	if err != nil {
		return MoveReceipt{}, errf(KindInternal, "%v", err)
	}
	arrival, carry := bits.Add64(now, duration, 0)
	if carry != 0 {
		return MoveReceipt{}, errf(KindInternal, "arrival time overflows")
	}

	prev := cur
	ext := Extension{Coordinates: dest, PrevCoordinates: &prev, Arrival: arrival}
	if err := r.ledger.UpdateExtension(tokenID, ext); err != nil {
		return MoveReceipt{}, err
	}
	delete(r.byPos, cur)
	r.byPos[dest] = tokenID
	r.creditFee(fee)
	return MoveReceipt{
		TokenID:       tokenID,
		Fee:           fee,
		DurationNanos: duration,
		Arrival:       arrival,
		Refund:        refund,
	}, nil
}

// UpdateConfig replaces the configuration wholesale. Privileged.
func (r *Registry) UpdateConfig(sender string, cfg econ.Config) error {
	if sender != r.owner {
		return errf(KindUnauthorized, "only %s may update the config", r.owner)
	}
	if err := cfg.Validate(); err != nil {
		return errf(KindInvalidConfig, "%v", err)
	}
	r.cfg = cfg
	r.cfgVersion++
	return nil
}

// UpdateCaptchaPublicKey replaces the mint-proof key. Privileged. The
// active verifier always follows the stored key (VerifierFor), so a
// restart resumed from a snapshot verifies exactly like the live process:
// installing a real key starts enforcing it immediately, clearing the key
// opens minting, and old-key proofs stop validating at once.
func (r *Registry) UpdateCaptchaPublicKey(sender, publicKey string) error {
	if sender != r.owner {
		return errf(KindUnauthorized, "only %s may update the captcha key", r.owner)
	}
	v, err := VerifierFor(publicKey)
	if err != nil {
		return errf(KindInvalidConfig, "captcha key: %v", err)
	}
	r.verifier = v
	r.captchaPublicKey = publicKey
	return nil
}

// Withdraw pays out collected fees to the owner. Privileged. Either every
// requested coin is available or nothing is withdrawn.
func (r *Registry) Withdraw(sender string, amounts []econ.Coin) error {
	if sender != r.owner {
		return errf(KindUnauthorized, "only %s may withdraw", r.owner)
	}
	want := map[string]uint64{}
	for _, c := range amounts {
		want[c.Denom] += c.Amount
	}
	for denom, amt := range want {
		if r.balances[denom] < amt {
			return errf(KindInsufficientPayment,
				"balance is %d%s, requested %d%s", r.balances[denom], denom, amt, denom)
		}
	}
	for denom, amt := range want {
		r.balances[denom] -= amt
	}
	return nil
}

// Migrate applies a version-upgrade record: the replacement config.
func (r *Registry) Migrate(cfg econ.Config) error {
	if err := cfg.Validate(); err != nil {
		return errf(KindInvalidConfig, "%v", err)
	}
	r.cfg = cfg
	r.cfgVersion++
	return nil
}
