package ledger

import "sort"

// OwnerOperators pairs an owner with its approve-all grants, for export.
type OwnerOperators struct {
	Owner     string          `json:"owner"`
	Operators []OperatorGrant `json:"operators"`
}

// ExportTokens returns every entry in id order.
func (l *Ledger[E]) ExportTokens() []Token[E] {
	ids := make([]string, 0, len(l.tokens))
	for id := range l.tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Token[E], 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.tokens[id])
	}
	return out
}

// ExportOperators returns every approve-all grant in owner order.
func (l *Ledger[E]) ExportOperators() []OwnerOperators {
	owners := make([]string, 0, len(l.operators))
	for o := range l.operators {
		if len(l.operators[o]) > 0 {
			owners = append(owners, o)
		}
	}
	sort.Strings(owners)
	out := make([]OwnerOperators, 0, len(owners))
	for _, o := range owners {
		ops := make([]string, 0, len(l.operators[o]))
		for op := range l.operators[o] {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		row := OwnerOperators{Owner: o}
		for _, op := range ops {
			row.Operators = append(row.Operators, l.operators[o][op])
		}
		out = append(out, row)
	}
	return out
}

// Restore rebuilds ledger state from an export. Existing state is
// discarded.
func (l *Ledger[E]) Restore(tokens []Token[E], operators []OwnerOperators) {
	l.tokens = make(map[string]*Token[E], len(tokens))
	for _, t := range tokens {
		t := t
		l.tokens[t.ID] = &t
	}
	l.operators = map[string]map[string]OperatorGrant{}
	for _, row := range operators {
		m := map[string]OperatorGrant{}
		for _, g := range row.Operators {
			m[g.Operator] = g
		}
		l.operators[row.Owner] = m
	}
}
