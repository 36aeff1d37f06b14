package protocol

import (
	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/registry"
)

type ConfigResponse struct {
	Config  econ.Config `json:"config"`
	Version uint64      `json:"version"`
}

type CaptchaPublicKeyResponse struct {
	PublicKey string `json:"public_key"`
}

type XyzTokensResponse struct {
	Tokens []registry.Token `json:"tokens"`
}

type MoveParamsResponse struct {
	Fee           econ.Coin `json:"fee"`
	DurationNanos uint64    `json:"duration_nanos"`
}

// MigrateMsg is the version-upgrade record: the replacement config.
type MigrateMsg struct {
	Config econ.Config `json:"config"`
}
