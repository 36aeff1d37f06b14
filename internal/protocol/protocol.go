// Package protocol defines the registry's wire vocabulary: the extended
// execute/query message set, its JSON encoding, and the adapter that
// narrows the forwardable subset onto the base ledger vocabulary.
package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

// Execute message types.
const (
	TypeMint                   = "MINT"
	TypeMove                   = "MOVE"
	TypeUpdateConfig           = "UPDATE_CONFIG"
	TypeUpdateCaptchaPublicKey = "UPDATE_CAPTCHA_PUBLIC_KEY"
	TypeWithdraw               = "WITHDRAW"
	TypeTransferNft            = "TRANSFER_NFT"
	TypeSendNft                = "SEND_NFT"
	TypeApprove                = "APPROVE"
	TypeRevoke                 = "REVOKE"
	TypeApproveAll             = "APPROVE_ALL"
	TypeRevokeAll              = "REVOKE_ALL"
)

// Query message types.
const (
	TypeConfig             = "CONFIG"
	TypeCaptchaPublicKey   = "CAPTCHA_PUBLIC_KEY"
	TypeXyzTokens          = "XYZ_TOKENS"
	TypeAllXyzTokens       = "ALL_XYZ_TOKENS"
	TypeXyzNftInfo         = "XYZ_NFT_INFO"
	TypeXyzNftInfoByCoords = "XYZ_NFT_INFO_BY_COORDS"
	TypeNumTokensForOwner  = "NUM_TOKENS_FOR_OWNER"
	TypeMoveParams         = "MOVE_PARAMS"
	TypeOwnerOf            = "OWNER_OF"
	TypeApprovedForAll     = "APPROVED_FOR_ALL"
	TypeNumTokens          = "NUM_TOKENS"
	TypeContractInfo       = "CONTRACT_INFO"
	TypeNftInfo            = "NFT_INFO"
	TypeAllNftInfo         = "ALL_NFT_INFO"
	TypeTokens             = "TOKENS"
	TypeAllTokens          = "ALL_TOKENS"
)

// Session message types (transport handshake and results).
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeResult  = "RESULT"
)

var executeTypes = map[string]struct{}{
	TypeMint: {}, TypeMove: {}, TypeUpdateConfig: {}, TypeUpdateCaptchaPublicKey: {},
	TypeWithdraw: {}, TypeTransferNft: {}, TypeSendNft: {}, TypeApprove: {},
	TypeRevoke: {}, TypeApproveAll: {}, TypeRevokeAll: {},
}

var queryTypes = map[string]struct{}{
	TypeConfig: {}, TypeCaptchaPublicKey: {}, TypeXyzTokens: {}, TypeAllXyzTokens: {},
	TypeXyzNftInfo: {}, TypeXyzNftInfoByCoords: {}, TypeNumTokensForOwner: {},
	TypeMoveParams: {}, TypeOwnerOf: {}, TypeApprovedForAll: {}, TypeNumTokens: {},
	TypeContractInfo: {}, TypeNftInfo: {}, TypeAllNftInfo: {}, TypeTokens: {}, TypeAllTokens: {},
}

// IsExecuteType reports whether t names an execute message.
func IsExecuteType(t string) bool {
	_, ok := executeTypes[t]
	return ok
}

// IsQueryType reports whether t names a query message.
func IsQueryType(t string) bool {
	_, ok := queryTypes[t]
	return ok
}

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// DecodeExecute parses one execute message by its type tag.
func DecodeExecute(b []byte) (ExecuteMsg, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, fmt.Errorf("execute message: %w", err)
	}
	var msg ExecuteMsg
	switch base.Type {
	case TypeMint:
		msg = &MintMsg{}
	case TypeMove:
		msg = &MoveMsg{}
	case TypeUpdateConfig:
		msg = &UpdateConfigMsg{}
	case TypeUpdateCaptchaPublicKey:
		msg = &UpdateCaptchaPublicKeyMsg{}
	case TypeWithdraw:
		msg = &WithdrawMsg{}
	case TypeTransferNft:
		msg = &TransferNftMsg{}
	case TypeSendNft:
		msg = &SendNftMsg{}
	case TypeApprove:
		msg = &ApproveMsg{}
	case TypeRevoke:
		msg = &RevokeMsg{}
	case TypeApproveAll:
		msg = &ApproveAllMsg{}
	case TypeRevokeAll:
		msg = &RevokeAllMsg{}
	default:
		return nil, fmt.Errorf("unknown execute type %q", base.Type)
	}
	if err := json.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("%s message: %w", base.Type, err)
	}
	return msg, nil
}

// DecodeQuery parses one query message by its type tag.
func DecodeQuery(b []byte) (QueryMsg, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, fmt.Errorf("query message: %w", err)
	}
	var q QueryMsg
	switch base.Type {
	case TypeConfig:
		q = &ConfigQuery{}
	case TypeCaptchaPublicKey:
		q = &CaptchaPublicKeyQuery{}
	case TypeXyzTokens:
		q = &XyzTokensQuery{}
	case TypeAllXyzTokens:
		q = &AllXyzTokensQuery{}
	case TypeXyzNftInfo:
		q = &XyzNftInfoQuery{}
	case TypeXyzNftInfoByCoords:
		q = &XyzNftInfoByCoordsQuery{}
	case TypeNumTokensForOwner:
		q = &NumTokensForOwnerQuery{}
	case TypeMoveParams:
		q = &MoveParamsQuery{}
	case TypeOwnerOf:
		q = &OwnerOfQuery{}
	case TypeApprovedForAll:
		q = &ApprovedForAllQuery{}
	case TypeNumTokens:
		q = &NumTokensQuery{}
	case TypeContractInfo:
		q = &ContractInfoQuery{}
	case TypeNftInfo:
		q = &NftInfoQuery{}
	case TypeAllNftInfo:
		q = &AllNftInfoQuery{}
	case TypeTokens:
		q = &TokensQuery{}
	case TypeAllTokens:
		q = &AllTokensQuery{}
	default:
		return nil, fmt.Errorf("unknown query type %q", base.Type)
	}
	if err := json.Unmarshal(b, q); err != nil {
		return nil, fmt.Errorf("%s message: %w", base.Type, err)
	}
	return q, nil
}
