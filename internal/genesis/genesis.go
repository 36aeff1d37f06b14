// Package genesis loads the registry's creation record.
package genesis

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/ledger"
)

type Genesis struct {
	// Privileged address: may mint while public minting is disabled,
	// update config/keys, and withdraw fees.
	Owner string `yaml:"owner"`
	// Hex-encoded ed25519 key the captcha service signs mint proofs with.
	// Empty disables proof checking.
	CaptchaPublicKey string              `yaml:"captcha_public_key"`
	Contract         ledger.ContractInfo `yaml:"contract"`
	Config           econ.Config         `yaml:"config"`
}

func Load(path string) (Genesis, error) {
	var g Genesis
	raw, err := os.ReadFile(path)
	if err != nil {
		return g, err
	}
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return g, fmt.Errorf("genesis.yaml: %w", err)
	}
	if g.Owner == "" {
		return g, errors.New("genesis.yaml: owner must be set")
	}
	if err := g.Config.Validate(); err != nil {
		return g, fmt.Errorf("genesis.yaml: %w", err)
	}
	return g, nil
}
