package protocol

import (
	"encoding/json"

	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/grid"
	"xyzgrid.io/internal/ledger"
)

// ExecuteMsg is the extended command vocabulary. It is sealed: every
// variant lives in this package and is either spatial (handled by the
// registry) or Forwardable (narrowed onto the base vocabulary).
type ExecuteMsg interface {
	execMsg()
	// MsgSender is the caller identity the host environment attached.
	MsgSender() string
}

// QueryMsg is the extended query vocabulary, sealed the same way.
type QueryMsg interface {
	queryMsg()
}

// MINT: create a token at the given coordinates.
type MintMsg struct {
	Type             string      `json:"type"`
	ID               string      `json:"id,omitempty"`
	Sender           string      `json:"sender"`
	Funds            []econ.Coin `json:"funds,omitempty"`
	Coordinates      grid.Coord  `json:"coordinates"`
	CaptchaSignature string      `json:"captcha_signature,omitempty"`
}

// MOVE: relocate an existing token.
type MoveMsg struct {
	Type        string      `json:"type"`
	ID          string      `json:"id,omitempty"`
	Sender      string      `json:"sender"`
	Funds       []econ.Coin `json:"funds,omitempty"`
	TokenID     string      `json:"token_id"`
	Coordinates grid.Coord  `json:"coordinates"`
}

// UPDATE_CONFIG: wholesale configuration replacement. Privileged.
type UpdateConfigMsg struct {
	Type   string      `json:"type"`
	ID     string      `json:"id,omitempty"`
	Sender string      `json:"sender"`
	Config econ.Config `json:"config"`
}

// UPDATE_CAPTCHA_PUBLIC_KEY. Privileged.
type UpdateCaptchaPublicKeyMsg struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Sender    string `json:"sender"`
	PublicKey string `json:"public_key"`
}

// WITHDRAW collected fees. Privileged.
type WithdrawMsg struct {
	Type   string      `json:"type"`
	ID     string      `json:"id,omitempty"`
	Sender string      `json:"sender"`
	Amount []econ.Coin `json:"amount"`
}

// Ownership commands, forwarded verbatim to the base ledger.

type TransferNftMsg struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	TokenID   string `json:"token_id"`
}

type SendNftMsg struct {
	Type     string          `json:"type"`
	ID       string          `json:"id,omitempty"`
	Sender   string          `json:"sender"`
	Contract string          `json:"contract"`
	TokenID  string          `json:"token_id"`
	Msg      json.RawMessage `json:"msg,omitempty"`
}

type ApproveMsg struct {
	Type    string  `json:"type"`
	ID      string  `json:"id,omitempty"`
	Sender  string  `json:"sender"`
	Spender string  `json:"spender"`
	TokenID string  `json:"token_id"`
	Expires *uint64 `json:"expires,omitempty"`
}

type RevokeMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Sender  string `json:"sender"`
	Spender string `json:"spender"`
	TokenID string `json:"token_id"`
}

type ApproveAllMsg struct {
	Type     string  `json:"type"`
	ID       string  `json:"id,omitempty"`
	Sender   string  `json:"sender"`
	Operator string  `json:"operator"`
	Expires  *uint64 `json:"expires,omitempty"`
}

type RevokeAllMsg struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Sender   string `json:"sender"`
	Operator string `json:"operator"`
}

func (*MintMsg) execMsg()                   {}
func (*MoveMsg) execMsg()                   {}
func (*UpdateConfigMsg) execMsg()           {}
func (*UpdateCaptchaPublicKeyMsg) execMsg() {}
func (*WithdrawMsg) execMsg()               {}
func (*TransferNftMsg) execMsg()            {}
func (*SendNftMsg) execMsg()                {}
func (*ApproveMsg) execMsg()                {}
func (*RevokeMsg) execMsg()                 {}
func (*ApproveAllMsg) execMsg()             {}
func (*RevokeAllMsg) execMsg()              {}

func (m *MintMsg) MsgSender() string                   { return m.Sender }
func (m *MoveMsg) MsgSender() string                   { return m.Sender }
func (m *UpdateConfigMsg) MsgSender() string           { return m.Sender }
func (m *UpdateCaptchaPublicKeyMsg) MsgSender() string { return m.Sender }
func (m *WithdrawMsg) MsgSender() string               { return m.Sender }
func (m *TransferNftMsg) MsgSender() string            { return m.Sender }
func (m *SendNftMsg) MsgSender() string                { return m.Sender }
func (m *ApproveMsg) MsgSender() string                { return m.Sender }
func (m *RevokeMsg) MsgSender() string                 { return m.Sender }
func (m *ApproveAllMsg) MsgSender() string             { return m.Sender }
func (m *RevokeAllMsg) MsgSender() string              { return m.Sender }

// Spatial queries.

type ConfigQuery struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type CaptchaPublicKeyQuery struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type XyzTokensQuery struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Owner      string `json:"owner"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type AllXyzTokensQuery struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type XyzNftInfoQuery struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	TokenID string `json:"token_id"`
}

type XyzNftInfoByCoordsQuery struct {
	Type        string     `json:"type"`
	ID          string     `json:"id,omitempty"`
	Coordinates grid.Coord `json:"coordinates"`
}

type NumTokensForOwnerQuery struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Owner string `json:"owner"`
}

type MoveParamsQuery struct {
	Type        string     `json:"type"`
	ID          string     `json:"id,omitempty"`
	TokenID     string     `json:"token_id"`
	Coordinates grid.Coord `json:"coordinates"`
}

// Ownership queries, forwarded verbatim to the base ledger.

type OwnerOfQuery struct {
	Type           string `json:"type"`
	ID             string `json:"id,omitempty"`
	TokenID        string `json:"token_id"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
}

type ApprovedForAllQuery struct {
	Type           string `json:"type"`
	ID             string `json:"id,omitempty"`
	Owner          string `json:"owner"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
	StartAfter     string `json:"start_after,omitempty"`
	Limit          uint32 `json:"limit,omitempty"`
}

type NumTokensQuery struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type ContractInfoQuery struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type NftInfoQuery struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	TokenID string `json:"token_id"`
}

type AllNftInfoQuery struct {
	Type           string `json:"type"`
	ID             string `json:"id,omitempty"`
	TokenID        string `json:"token_id"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
}

type TokensQuery struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Owner      string `json:"owner"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type AllTokensQuery struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

func (*ConfigQuery) queryMsg()             {}
func (*CaptchaPublicKeyQuery) queryMsg()   {}
func (*XyzTokensQuery) queryMsg()          {}
func (*AllXyzTokensQuery) queryMsg()       {}
func (*XyzNftInfoQuery) queryMsg()         {}
func (*XyzNftInfoByCoordsQuery) queryMsg() {}
func (*NumTokensForOwnerQuery) queryMsg()  {}
func (*MoveParamsQuery) queryMsg()         {}
func (*OwnerOfQuery) queryMsg()            {}
func (*ApprovedForAllQuery) queryMsg()     {}
func (*NumTokensQuery) queryMsg()          {}
func (*ContractInfoQuery) queryMsg()       {}
func (*NftInfoQuery) queryMsg()            {}
func (*AllNftInfoQuery) queryMsg()         {}
func (*TokensQuery) queryMsg()             {}
func (*AllTokensQuery) queryMsg()          {}

// HELLO (client -> server): declares the caller identity for the session.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Sender          string `json:"sender"`
}

// WELCOME (server -> client).
type WelcomeMsg struct {
	Type            string              `json:"type"`
	ProtocolVersion string              `json:"protocol_version"`
	SessionID       string              `json:"session_id"`
	Contract        ledger.ContractInfo `json:"contract"`
	ConfigVersion   uint64              `json:"config_version"`
}

// RESULT (server -> client): outcome of one execute or query message.
type ResultMsg struct {
	Type     string          `json:"type"`
	For      string          `json:"for,omitempty"`
	Accepted bool            `json:"accepted"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}
