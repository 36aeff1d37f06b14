// Package ledger is the base ownable-asset registry: token identity,
// ownership, transfer, approvals, and enumeration. It knows nothing about
// coordinates; spatial state rides along as an opaque extension payload.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Enumeration page sizes.
const (
	DefaultLimit = 10
	MaxLimit     = 30
)

var (
	ErrNotFound     = errors.New("token not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExists       = errors.New("token_id already claimed")
)

// Approval grants a spender control over one token until Expires
// (nanoseconds; nil means never).
type Approval struct {
	Spender string  `json:"spender"`
	Expires *uint64 `json:"expires,omitempty"`
}

func (a Approval) expired(now uint64) bool {
	return a.Expires != nil && *a.Expires <= now
}

// OperatorGrant is an approve-all edge from an owner to an operator.
type OperatorGrant struct {
	Operator string  `json:"operator"`
	Expires  *uint64 `json:"expires,omitempty"`
}

func (g OperatorGrant) expired(now uint64) bool {
	return g.Expires != nil && *g.Expires <= now
}

// Token is one ledger entry.
type Token[E any] struct {
	ID        string     `json:"token_id"`
	Owner     string     `json:"owner"`
	Approvals []Approval `json:"approvals"`
	Extension E          `json:"extension"`
}

// ContractInfo describes the registry itself.
type ContractInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Receiver is notified when a token is sent (not merely transferred) to
// it. The hook runs after the ownership change has been recorded.
type Receiver interface {
	ReceiveToken(sender, tokenID string, msg json.RawMessage) error
}

// Ledger is an in-memory ownable-asset registry. It is not safe for
// concurrent use; callers serialize access.
type Ledger[E any] struct {
	info      ContractInfo
	tokens    map[string]*Token[E]
	operators map[string]map[string]OperatorGrant // owner -> operator -> grant
	receivers map[string]Receiver
}

func New[E any](info ContractInfo) *Ledger[E] {
	return &Ledger[E]{
		info:      info,
		tokens:    map[string]*Token[E]{},
		operators: map[string]map[string]OperatorGrant{},
		receivers: map[string]Receiver{},
	}
}

// RegisterReceiver attaches a receive hook for tokens sent to addr.
func (l *Ledger[E]) RegisterReceiver(addr string, r Receiver) {
	l.receivers[addr] = r
}

// MintToken creates a new entry with no approvals.
func (l *Ledger[E]) MintToken(id, owner string, ext E) error {
	if _, ok := l.tokens[id]; ok {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	l.tokens[id] = &Token[E]{ID: id, Owner: owner, Extension: ext}
	return nil
}

// Authorize reports whether sender may act on the token: owner, holder of
// an unexpired approval, or an unexpired operator of the owner.
func (l *Ledger[E]) Authorize(sender, tokenID string, now uint64) error {
	t, ok := l.tokens[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tokenID)
	}
	if t.Owner == sender {
		return nil
	}
	for _, a := range t.Approvals {
		if a.Spender == sender && !a.expired(now) {
			return nil
		}
	}
	if g, ok := l.operators[t.Owner][sender]; ok && !g.expired(now) {
		return nil
	}
	return fmt.Errorf("%w: %s may not act on %s", ErrUnauthorized, sender, tokenID)
}

// Transfer moves ownership to recipient and clears token approvals.
func (l *Ledger[E]) Transfer(sender, recipient, tokenID string, now uint64) error {
	if err := l.Authorize(sender, tokenID, now); err != nil {
		return err
	}
	t := l.tokens[tokenID]
	t.Owner = recipient
	t.Approvals = nil
	return nil
}

// Send transfers the token to contract and fires its receive hook, if one
// is registered.
func (l *Ledger[E]) Send(sender, contract, tokenID string, msg json.RawMessage, now uint64) error {
	if err := l.Transfer(sender, contract, tokenID, now); err != nil {
		return err
	}
	if r := l.receivers[contract]; r != nil {
		return r.ReceiveToken(sender, tokenID, msg)
	}
	return nil
}

// Approve grants spender control over one token. Only the owner or an
// unexpired operator may grant.
func (l *Ledger[E]) Approve(sender, spender, tokenID string, expires *uint64, now uint64) error {
	t, ok := l.tokens[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tokenID)
	}
	if err := l.authorizeOwnerOrOperator(sender, t.Owner, now); err != nil {
		return err
	}
	// Replace any prior grant to the same spender.
	l.revokeApproval(t, spender)
	t.Approvals = append(t.Approvals, Approval{Spender: spender, Expires: expires})
	return nil
}

// Revoke removes a spender's approval on one token.
func (l *Ledger[E]) Revoke(sender, spender, tokenID string, now uint64) error {
	t, ok := l.tokens[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tokenID)
	}
	if err := l.authorizeOwnerOrOperator(sender, t.Owner, now); err != nil {
		return err
	}
	l.revokeApproval(t, spender)
	return nil
}

// ApproveAll grants operator control over every token sender owns.
func (l *Ledger[E]) ApproveAll(sender, operator string, expires *uint64) {
	m := l.operators[sender]
	if m == nil {
		m = map[string]OperatorGrant{}
		l.operators[sender] = m
	}
	m[operator] = OperatorGrant{Operator: operator, Expires: expires}
}

// RevokeAll removes an operator grant.
func (l *Ledger[E]) RevokeAll(sender, operator string) {
	delete(l.operators[sender], operator)
}

func (l *Ledger[E]) authorizeOwnerOrOperator(sender, owner string, now uint64) error {
	if sender == owner {
		return nil
	}
	if g, ok := l.operators[owner][sender]; ok && !g.expired(now) {
		return nil
	}
	return fmt.Errorf("%w: %s is not owner or operator of %s", ErrUnauthorized, sender, owner)
}

func (l *Ledger[E]) revokeApproval(t *Token[E], spender string) {
	out := t.Approvals[:0]
	for _, a := range t.Approvals {
		if a.Spender != spender {
			out = append(out, a)
		}
	}
	t.Approvals = out
}

// Get returns a copy of one token entry.
func (l *Ledger[E]) Get(tokenID string) (Token[E], bool) {
	t, ok := l.tokens[tokenID]
	if !ok {
		return Token[E]{}, false
	}
	return *t, true
}

// UpdateExtension rewrites the extension payload of an existing entry.
func (l *Ledger[E]) UpdateExtension(tokenID string, ext E) error {
	t, ok := l.tokens[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tokenID)
	}
	t.Extension = ext
	return nil
}

func (l *Ledger[E]) Info() ContractInfo { return l.info }

// NumTokens returns the total token count.
func (l *Ledger[E]) NumTokens() uint64 { return uint64(len(l.tokens)) }

// CountForOwner returns how many tokens owner holds.
func (l *Ledger[E]) CountForOwner(owner string) uint64 {
	var n uint64
	for _, t := range l.tokens {
		if t.Owner == owner {
			n++
		}
	}
	return n
}

// OwnerOf returns the owner and (optionally expired) approvals of a token.
func (l *Ledger[E]) OwnerOf(tokenID string, includeExpired bool, now uint64) (string, []Approval, error) {
	t, ok := l.tokens[tokenID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, tokenID)
	}
	var approvals []Approval
	for _, a := range t.Approvals {
		if includeExpired || !a.expired(now) {
			approvals = append(approvals, a)
		}
	}
	return t.Owner, approvals, nil
}

// Operators lists approve-all grants from owner, paginated by operator
// address.
func (l *Ledger[E]) Operators(owner string, includeExpired bool, startAfter string, limit uint32, now uint64) []OperatorGrant {
	var names []string
	for op := range l.operators[owner] {
		names = append(names, op)
	}
	sort.Strings(names)
	var out []OperatorGrant
	for _, op := range names {
		if startAfter != "" && op <= startAfter {
			continue
		}
		g := l.operators[owner][op]
		if !includeExpired && g.expired(now) {
			continue
		}
		out = append(out, g)
		if uint32(len(out)) >= clampLimit(limit) {
			break
		}
	}
	return out
}

// Tokens lists token ids held by owner in id order.
func (l *Ledger[E]) Tokens(owner, startAfter string, limit uint32) []string {
	return l.page(startAfter, limit, func(t *Token[E]) bool { return t.Owner == owner })
}

// AllTokens lists every token id in id order.
func (l *Ledger[E]) AllTokens(startAfter string, limit uint32) []string {
	return l.page(startAfter, limit, func(*Token[E]) bool { return true })
}

func (l *Ledger[E]) page(startAfter string, limit uint32, keep func(*Token[E]) bool) []string {
	ids := make([]string, 0, len(l.tokens))
	for id, t := range l.tokens {
		if keep(t) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	var out []string
	for _, id := range ids {
		if startAfter != "" && id <= startAfter {
			continue
		}
		out = append(out, id)
		if uint32(len(out)) >= clampLimit(limit) {
			break
		}
	}
	return out
}

func clampLimit(limit uint32) uint32 {
	if limit == 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
