// Package registry layers spatial state on top of the base ownership
// ledger: per-token coordinates, the travel lifecycle, and the fee
// economy around minting and moving.
//
// The registry is single-threaded. The host environment (transport layer)
// serializes command application and supplies logical time and caller
// identity with every call; each command either fully applies or leaves
// no trace.
package registry

import (
	"fmt"

	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/grid"
	"xyzgrid.io/internal/ledger"
)

// Extension is the spatial payload attached to each ledger entry.
type Extension struct {
	Coordinates grid.Coord `json:"coordinates"`
	// Set only while a move is outstanding; nil when idle.
	PrevCoordinates *grid.Coord `json:"prev_coordinates,omitempty"`
	// Nanosecond instant at which an in-progress move completes. Equals
	// the mint time when the token has never moved.
	Arrival uint64 `json:"arrival"`
}

// InTransit reports whether a move has been committed for this token.
// Whether it has landed is a question about time, not state; see Arrived.
func (e Extension) InTransit() bool { return e.PrevCoordinates != nil }

// Arrived reports whether the token's most recent move has completed as
// of now. Arrival is never consumed; this is purely derived.
func (e Extension) Arrived(now uint64) bool { return now >= e.Arrival }

// Token is a ledger entry with its spatial extension.
type Token = ledger.Token[Extension]

// Verifier checks a mint proof. Production uses Ed25519Verifier; tests
// may accept everything.
type Verifier interface {
	Verify(sender string, coords grid.Coord, proof string) error
}

// Registry is the spatial registry core.
type Registry struct {
	owner string // privileged address

	cfg        econ.Config
	cfgVersion uint64

	captchaPublicKey string
	verifier         Verifier

	ledger *ledger.Ledger[Extension]
	byPos  map[grid.Coord]string // position -> token id, the occupancy index
	// Fees collected, by denom. Withdraw draws from here.
	balances map[string]uint64

	nextTokenNum uint64
}

// New builds a registry from its genesis inputs.
func New(owner string, cfg econ.Config, captchaPublicKey string, verifier Verifier, info ledger.ContractInfo) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errf(KindInvalidConfig, "%v", err)
	}
	if owner == "" {
		return nil, errf(KindInvalidConfig, "registry owner must be set")
	}
	return &Registry{
		owner:            owner,
		cfg:              cfg,
		cfgVersion:       1,
		captchaPublicKey: captchaPublicKey,
		verifier:         verifier,
		ledger:           ledger.New[Extension](info),
		byPos:            map[grid.Coord]string{},
		balances:         map[string]uint64{},
	}, nil
}

// Owner returns the privileged address.
func (r *Registry) Owner() string { return r.owner }

// Ledger exposes the base registry for forwarded ownership operations.
func (r *Registry) Ledger() *ledger.Ledger[Extension] { return r.ledger }

func (r *Registry) newTokenID() string {
	r.nextTokenNum++
	return fmt.Sprintf("xyz #%d", r.nextTokenNum)
}
