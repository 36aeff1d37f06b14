package ledger

import (
	"encoding/json"
	"fmt"
)

// The base vocabulary: every ownership operation and query the ledger
// understands, as data. The extended registry vocabulary narrows onto
// these variants; Execute and Apply keep the two call styles equivalent.

// ExecuteMsg is a sealed union of the base command variants.
type ExecuteMsg interface{ baseExecute() }

type TransferNft struct {
	Recipient string `json:"recipient"`
	TokenID   string `json:"token_id"`
}

type SendNft struct {
	Contract string          `json:"contract"`
	TokenID  string          `json:"token_id"`
	Msg      json.RawMessage `json:"msg,omitempty"`
}

type ApproveSpender struct {
	Spender string  `json:"spender"`
	TokenID string  `json:"token_id"`
	Expires *uint64 `json:"expires,omitempty"`
}

type RevokeSpender struct {
	Spender string `json:"spender"`
	TokenID string `json:"token_id"`
}

type ApproveAllOperator struct {
	Operator string  `json:"operator"`
	Expires  *uint64 `json:"expires,omitempty"`
}

type RevokeAllOperator struct {
	Operator string `json:"operator"`
}

func (TransferNft) baseExecute()        {}
func (SendNft) baseExecute()            {}
func (ApproveSpender) baseExecute()     {}
func (RevokeSpender) baseExecute()      {}
func (ApproveAllOperator) baseExecute() {}
func (RevokeAllOperator) baseExecute()  {}

// Execute applies one base command on behalf of sender.
func (l *Ledger[E]) Execute(sender string, now uint64, msg ExecuteMsg) error {
	switch m := msg.(type) {
	case TransferNft:
		return l.Transfer(sender, m.Recipient, m.TokenID, now)
	case SendNft:
		return l.Send(sender, m.Contract, m.TokenID, m.Msg, now)
	case ApproveSpender:
		return l.Approve(sender, m.Spender, m.TokenID, m.Expires, now)
	case RevokeSpender:
		return l.Revoke(sender, m.Spender, m.TokenID, now)
	case ApproveAllOperator:
		l.ApproveAll(sender, m.Operator, m.Expires)
		return nil
	case RevokeAllOperator:
		l.RevokeAll(sender, m.Operator)
		return nil
	}
	// Unreachable: ExecuteMsg is sealed and every variant is handled above.
	return fmt.Errorf("unhandled base execute variant %T", msg)
}

// QueryMsg is a sealed union of the base query variants.
type QueryMsg interface{ baseQuery() }

type OwnerOfQuery struct {
	TokenID        string `json:"token_id"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
}

type ApprovedForAllQuery struct {
	Owner          string `json:"owner"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
	StartAfter     string `json:"start_after,omitempty"`
	Limit          uint32 `json:"limit,omitempty"`
}

type NumTokensQuery struct{}

type ContractInfoQuery struct{}

type NftInfoQuery struct {
	TokenID string `json:"token_id"`
}

type AllNftInfoQuery struct {
	TokenID        string `json:"token_id"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
}

type TokensQuery struct {
	Owner      string `json:"owner"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type AllTokensQuery struct {
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

func (OwnerOfQuery) baseQuery()        {}
func (ApprovedForAllQuery) baseQuery() {}
func (NumTokensQuery) baseQuery()      {}
func (ContractInfoQuery) baseQuery()   {}
func (NftInfoQuery) baseQuery()        {}
func (AllNftInfoQuery) baseQuery()     {}
func (TokensQuery) baseQuery()         {}
func (AllTokensQuery) baseQuery()      {}

type OwnerOfResponse struct {
	Owner     string     `json:"owner"`
	Approvals []Approval `json:"approvals"`
}

type OperatorsResponse struct {
	Operators []OperatorGrant `json:"operators"`
}

type NumTokensResponse struct {
	Count uint64 `json:"count"`
}

type NftInfoResponse[E any] struct {
	Extension E `json:"extension"`
}

type AllNftInfoResponse[E any] struct {
	Access OwnerOfResponse   `json:"access"`
	Info   NftInfoResponse[E] `json:"info"`
}

type TokensResponse struct {
	Tokens []string `json:"tokens"`
}

// Query answers one base query.
func (l *Ledger[E]) Query(now uint64, q QueryMsg) (any, error) {
	switch m := q.(type) {
	case OwnerOfQuery:
		owner, approvals, err := l.OwnerOf(m.TokenID, m.IncludeExpired, now)
		if err != nil {
			return nil, err
		}
		return OwnerOfResponse{Owner: owner, Approvals: approvals}, nil
	case ApprovedForAllQuery:
		return OperatorsResponse{Operators: l.Operators(m.Owner, m.IncludeExpired, m.StartAfter, m.Limit, now)}, nil
	case NumTokensQuery:
		return NumTokensResponse{Count: l.NumTokens()}, nil
	case ContractInfoQuery:
		return l.info, nil
	case NftInfoQuery:
		t, ok := l.tokens[m.TokenID]
		if !ok {
			return nil, ErrNotFound
		}
		return NftInfoResponse[E]{Extension: t.Extension}, nil
	case AllNftInfoQuery:
		t, ok := l.tokens[m.TokenID]
		if !ok {
			return nil, ErrNotFound
		}
		owner, approvals, err := l.OwnerOf(m.TokenID, m.IncludeExpired, now)
		if err != nil {
			return nil, err
		}
		return AllNftInfoResponse[E]{
			Access: OwnerOfResponse{Owner: owner, Approvals: approvals},
			Info:   NftInfoResponse[E]{Extension: t.Extension},
		}, nil
	case TokensQuery:
		return TokensResponse{Tokens: l.Tokens(m.Owner, m.StartAfter, m.Limit)}, nil
	case AllTokensQuery:
		return TokensResponse{Tokens: l.AllTokens(m.StartAfter, m.Limit)}, nil
	}
	// Unreachable: QueryMsg is sealed and every variant is handled above.
	return nil, fmt.Errorf("unhandled base query variant %T", q)
}
