package registry

import (
	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/grid"
	"xyzgrid.io/internal/ledger"
)

// State is the full serializable registry state, used by snapshots.
type State struct {
	Owner            string                  `json:"owner"`
	Config           econ.Config             `json:"config"`
	ConfigVersion    uint64                  `json:"config_version"`
	CaptchaPublicKey string                  `json:"captcha_public_key"`
	NextTokenNum     uint64                  `json:"next_token_num"`
	Balances         map[string]uint64       `json:"balances"`
	Tokens           []Token                 `json:"tokens"`
	Operators        []ledger.OwnerOperators `json:"operators,omitempty"`
	Info             ledger.ContractInfo     `json:"contract_info"`
}

// Export captures the current state.
func (r *Registry) Export() State {
	balances := make(map[string]uint64, len(r.balances))
	for d, a := range r.balances {
		balances[d] = a
	}
	return State{
		Owner:            r.owner,
		Config:           r.cfg,
		ConfigVersion:    r.cfgVersion,
		CaptchaPublicKey: r.captchaPublicKey,
		NextTokenNum:     r.nextTokenNum,
		Balances:         balances,
		Tokens:           r.ledger.ExportTokens(),
		Operators:        r.ledger.ExportOperators(),
		Info:             r.ledger.Info(),
	}
}

// FromState rebuilds a registry from an exported state. The position
// index is rederived from the token set rather than trusted from disk.
func FromState(s State, verifier Verifier) (*Registry, error) {
	r, err := New(s.Owner, s.Config, s.CaptchaPublicKey, verifier, s.Info)
	if err != nil {
		return nil, err
	}
	r.cfgVersion = s.ConfigVersion
	r.nextTokenNum = s.NextTokenNum
	for d, a := range s.Balances {
		r.balances[d] = a
	}
	r.ledger.Restore(s.Tokens, s.Operators)
	for _, t := range s.Tokens {
		pos := t.Extension.Coordinates
		if holder, ok := r.byPos[pos]; ok {
			return nil, errf(KindPositionOccupied,
				"snapshot corrupt: %s and %s both at %s", holder, t.ID, pos)
		}
		r.byPos[pos] = t.ID
	}
	return r, nil
}

// PositionFor reports which token occupies pos, if any.
func (r *Registry) PositionFor(pos grid.Coord) (string, bool) {
	id, ok := r.byPos[pos]
	return id, ok
}
