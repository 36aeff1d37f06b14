package protocol

import (
	"fmt"

	"xyzgrid.io/internal/ledger"
	"xyzgrid.io/internal/registry"
)

// Forwardable is the subset of the execute vocabulary with a base-ledger
// counterpart. Each variant defines its own total, lossless mapping; a
// variant without a mapping simply does not satisfy this interface, so an
// incomplete adapter is a missing method at compile time rather than an
// abort at run time.
type Forwardable interface {
	ExecuteMsg
	BaseExecute() ledger.ExecuteMsg
}

// ForwardableQuery is the query-side equivalent of Forwardable.
type ForwardableQuery interface {
	QueryMsg
	BaseQuery() ledger.QueryMsg
}

func (m *TransferNftMsg) BaseExecute() ledger.ExecuteMsg {
	return ledger.TransferNft{Recipient: m.Recipient, TokenID: m.TokenID}
}

func (m *SendNftMsg) BaseExecute() ledger.ExecuteMsg {
	return ledger.SendNft{Contract: m.Contract, TokenID: m.TokenID, Msg: m.Msg}
}

func (m *ApproveMsg) BaseExecute() ledger.ExecuteMsg {
	return ledger.ApproveSpender{Spender: m.Spender, TokenID: m.TokenID, Expires: m.Expires}
}

func (m *RevokeMsg) BaseExecute() ledger.ExecuteMsg {
	return ledger.RevokeSpender{Spender: m.Spender, TokenID: m.TokenID}
}

func (m *ApproveAllMsg) BaseExecute() ledger.ExecuteMsg {
	return ledger.ApproveAllOperator{Operator: m.Operator, Expires: m.Expires}
}

func (m *RevokeAllMsg) BaseExecute() ledger.ExecuteMsg {
	return ledger.RevokeAllOperator{Operator: m.Operator}
}

func (q *OwnerOfQuery) BaseQuery() ledger.QueryMsg {
	return ledger.OwnerOfQuery{TokenID: q.TokenID, IncludeExpired: q.IncludeExpired}
}

func (q *ApprovedForAllQuery) BaseQuery() ledger.QueryMsg {
	return ledger.ApprovedForAllQuery{
		Owner:          q.Owner,
		IncludeExpired: q.IncludeExpired,
		StartAfter:     q.StartAfter,
		Limit:          q.Limit,
	}
}

func (q *NumTokensQuery) BaseQuery() ledger.QueryMsg { return ledger.NumTokensQuery{} }

func (q *ContractInfoQuery) BaseQuery() ledger.QueryMsg { return ledger.ContractInfoQuery{} }

func (q *NftInfoQuery) BaseQuery() ledger.QueryMsg {
	return ledger.NftInfoQuery{TokenID: q.TokenID}
}

func (q *AllNftInfoQuery) BaseQuery() ledger.QueryMsg {
	return ledger.AllNftInfoQuery{TokenID: q.TokenID, IncludeExpired: q.IncludeExpired}
}

func (q *TokensQuery) BaseQuery() ledger.QueryMsg {
	return ledger.TokensQuery{Owner: q.Owner, StartAfter: q.StartAfter, Limit: q.Limit}
}

func (q *AllTokensQuery) BaseQuery() ledger.QueryMsg {
	return ledger.AllTokensQuery{StartAfter: q.StartAfter, Limit: q.Limit}
}

// Adapter applies extended messages: spatial variants against the
// registry core, forwardable variants against the base ledger.
type Adapter struct {
	reg *registry.Registry
}

func NewAdapter(reg *registry.Registry) *Adapter {
	return &Adapter{reg: reg}
}

// Execute applies one command at the given logical time. The returned
// value is the command's receipt, if its variant produces one.
func (a *Adapter) Execute(now uint64, msg ExecuteMsg) (any, error) {
	switch m := msg.(type) {
	case *MintMsg:
		return a.reg.Mint(m.Sender, m.Funds, now, m.Coordinates, m.CaptchaSignature)
	case *MoveMsg:
		return a.reg.Move(m.Sender, m.Funds, now, m.TokenID, m.Coordinates)
	case *UpdateConfigMsg:
		return nil, a.reg.UpdateConfig(m.Sender, m.Config)
	case *UpdateCaptchaPublicKeyMsg:
		return nil, a.reg.UpdateCaptchaPublicKey(m.Sender, m.PublicKey)
	case *WithdrawMsg:
		return nil, a.reg.Withdraw(m.Sender, m.Amount)
	case Forwardable:
		return nil, a.reg.Ledger().Execute(m.MsgSender(), now, m.BaseExecute())
	}
	// Unreachable: the vocabulary is sealed and every spatial variant is
	// listed above; everything else satisfies Forwardable by construction.
	return nil, fmt.Errorf("unhandled execute variant %T", msg)
}

// Query answers one query at the given logical time.
func (a *Adapter) Query(now uint64, q QueryMsg) (any, error) {
	switch m := q.(type) {
	case *ConfigQuery:
		cfg, version := a.reg.Config()
		return ConfigResponse{Config: cfg, Version: version}, nil
	case *CaptchaPublicKeyQuery:
		return CaptchaPublicKeyResponse{PublicKey: a.reg.CaptchaPublicKey()}, nil
	case *XyzTokensQuery:
		return XyzTokensResponse{Tokens: a.reg.XyzTokens(m.Owner, m.StartAfter, m.Limit)}, nil
	case *AllXyzTokensQuery:
		return XyzTokensResponse{Tokens: a.reg.AllXyzTokens(m.StartAfter, m.Limit)}, nil
	case *XyzNftInfoQuery:
		return a.reg.XyzNftInfo(m.TokenID)
	case *XyzNftInfoByCoordsQuery:
		return a.reg.XyzNftInfoByCoords(m.Coordinates)
	case *NumTokensForOwnerQuery:
		return ledger.NumTokensResponse{Count: a.reg.NumTokensForOwner(m.Owner)}, nil
	case *MoveParamsQuery:
		fee, nanos, err := a.reg.MoveParams(m.TokenID, m.Coordinates)
		if err != nil {
			return nil, err
		}
		return MoveParamsResponse{Fee: fee, DurationNanos: nanos}, nil
	case ForwardableQuery:
		return a.reg.Ledger().Query(now, m.BaseQuery())
	}
	// Unreachable, as in Execute.
	return nil, fmt.Errorf("unhandled query variant %T", q)
}
