package genesis

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
owner: xyz1owner
captcha_public_key: ""
contract:
  name: xyz
  symbol: XYZ
config:
  public_minting_enabled: true
  max_coordinate_value: 1000
  token_supply: 10000
  wallet_limit: 6
  mint_fee: {denom: tokens, amount: 50}
  base_move_nanos: 1000
  move_nanos_per_step: 500
  base_move_fee: {denom: tokens, amount: 10}
  move_fee_per_step: 2
`

func writeGenesis(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad(t *testing.T) {
	g, err := Load(writeGenesis(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Owner != "xyz1owner" || g.Contract.Symbol != "XYZ" {
		t.Fatalf("genesis %+v", g)
	}
	if g.Config.MaxCoordinateValue != 1000 || g.Config.MoveFeePerStep != 2 {
		t.Fatalf("config %+v", g.Config)
	}
}

func TestLoadRejects(t *testing.T) {
	if _, err := Load(writeGenesis(t, "owner: ''\n")); err == nil {
		t.Fatalf("missing owner accepted")
	}
	if _, err := Load(writeGenesis(t, "owner: a\nconfig: {max_coordinate_value: -1}\n")); err == nil {
		t.Fatalf("invalid config accepted")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
