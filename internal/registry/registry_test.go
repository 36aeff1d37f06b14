package registry

import (
	"strings"
	"testing"

	"xyzgrid.io/internal/econ"
	"xyzgrid.io/internal/grid"
	"xyzgrid.io/internal/ledger"
)

const (
	owner = "owner"
	alice = "alice"
	bob   = "bob"
)

func testConfig() econ.Config {
	return econ.Config{
		PublicMintingEnabled: true,
		MaxCoordinateValue:   100,
		TokenSupply:          1000,
		WalletLimit:          5,
		MintFee:              econ.Coin{Denom: "tokens", Amount: 50},
		BaseMoveNanos:        1000,
		MoveNanosPerStep:     500,
		BaseMoveFee:          econ.Coin{Denom: "tokens", Amount: 10},
		MoveFeePerStep:       2,
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(owner, testConfig(), "", AcceptAll{}, ledger.ContractInfo{Name: "xyz", Symbol: "XYZ"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func coins(amount uint64) []econ.Coin {
	return []econ.Coin{{Denom: "tokens", Amount: amount}}
}

func mustMint(t *testing.T, r *Registry, sender string, c grid.Coord) string {
	t.Helper()
	funds := coins(50)
	if sender == owner {
		funds = nil
	}
	rcpt, err := r.Mint(sender, funds, 0, c, "")
	if err != nil {
		t.Fatalf("mint at %s: %v", c, err)
	}
	return rcpt.TokenID
}

func TestMint(t *testing.T) {
	r := newTestRegistry(t)

	rcpt, err := r.Mint(alice, coins(50), 7, grid.Coord{X: 1, Y: 2, Z: 3}, "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if rcpt.TokenID != "xyz #1" {
		t.Fatalf("token id %q want %q", rcpt.TokenID, "xyz #1")
	}
	tok, err := r.XyzNftInfo(rcpt.TokenID)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	ext := tok.Extension
	if ext.Coordinates != (grid.Coord{X: 1, Y: 2, Z: 3}) || ext.PrevCoordinates != nil || ext.Arrival != 7 {
		t.Fatalf("extension %+v: want idle at (1,2,3), arrival 7", ext)
	}
	if ext.InTransit() {
		t.Fatalf("fresh token reports in transit")
	}
	if r.Balance("tokens") != 50 {
		t.Fatalf("balance=%d want 50", r.Balance("tokens"))
	}
}

func TestMintBounds(t *testing.T) {
	r := newTestRegistry(t)

	// The corners of the configured cube are in bounds.
	mustMint(t, r, alice, grid.Coord{X: 100, Y: 100, Z: 100})

	_, err := r.Mint(alice, coins(50), 0, grid.Coord{X: 101}, "")
	if KindOf(err) != KindOutOfBounds {
		t.Fatalf("err=%v want out_of_bounds", err)
	}
}

func TestMintOccupied(t *testing.T) {
	r := newTestRegistry(t)
	pos := grid.Coord{X: 4}
	id := mustMint(t, r, alice, pos)

	_, err := r.Mint(bob, coins(50), 9, pos, "")
	if KindOf(err) != KindPositionOccupied {
		t.Fatalf("err=%v want position_occupied", err)
	}

	// The incumbent token is untouched.
	tok, _ := r.XyzNftInfo(id)
	if tok.Owner != alice || tok.Extension.Coordinates != pos || tok.Extension.Arrival != 0 {
		t.Fatalf("incumbent mutated: %+v", tok)
	}
}

func TestMintRestricted(t *testing.T) {
	cfg := testConfig()
	cfg.PublicMintingEnabled = false
	r, err := New(owner, cfg, "", AcceptAll{}, ledger.ContractInfo{Name: "xyz", Symbol: "XYZ"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := r.Mint(alice, coins(50), 0, grid.Coord{X: 1}, ""); KindOf(err) != KindUnauthorized {
		t.Fatalf("err=%v want unauthorized", err)
	}
	// The owner may always mint and pays nothing.
	rcpt, err := r.Mint(owner, nil, 0, grid.Coord{X: 1}, "")
	if err != nil {
		t.Fatalf("owner mint: %v", err)
	}
	if r.Balance("tokens") != 0 {
		t.Fatalf("owner mint collected a fee")
	}
	// Owner funds sent anyway come straight back.
	rcpt, err = r.Mint(owner, coins(50), 0, grid.Coord{X: 2}, "")
	if err != nil {
		t.Fatalf("owner mint with funds: %v", err)
	}
	if len(rcpt.Refund) != 1 || rcpt.Refund[0].Amount != 50 {
		t.Fatalf("refund=%v want full 50tokens back", rcpt.Refund)
	}
}

func TestMintPayment(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Mint(alice, coins(49), 0, grid.Coord{X: 1}, ""); KindOf(err) != KindInsufficientPayment {
		t.Fatalf("underpaid: err=%v want insufficient_payment", err)
	}
	if _, err := r.Mint(alice, []econ.Coin{{Denom: "shells", Amount: 50}}, 0, grid.Coord{X: 1}, ""); KindOf(err) != KindWrongDenomination {
		t.Fatalf("wrong denom: err=%v want wrong_denomination", err)
	}
	rcpt, err := r.Mint(alice, coins(70), 0, grid.Coord{X: 1}, "")
	if err != nil {
		t.Fatalf("overpaid mint: %v", err)
	}
	if len(rcpt.Refund) != 1 || rcpt.Refund[0] != (econ.Coin{Denom: "tokens", Amount: 20}) {
		t.Fatalf("refund=%v want 20tokens", rcpt.Refund)
	}
	if r.Balance("tokens") != 50 {
		t.Fatalf("balance=%d want exactly the fee", r.Balance("tokens"))
	}
}

func TestMintCaps(t *testing.T) {
	cfg := testConfig()
	cfg.TokenSupply = 2
	r, err := New(owner, cfg, "", AcceptAll{}, ledger.ContractInfo{Name: "xyz", Symbol: "XYZ"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustMint(t, r, alice, grid.Coord{X: 1})
	mustMint(t, r, alice, grid.Coord{X: 2})
	if _, err := r.Mint(alice, coins(50), 0, grid.Coord{X: 3}, ""); KindOf(err) != KindSupplyExhausted {
		t.Fatalf("err=%v want supply_exhausted", err)
	}

	cfg = testConfig()
	cfg.WalletLimit = 1
	r, err = New(owner, cfg, "", AcceptAll{}, ledger.ContractInfo{Name: "xyz", Symbol: "XYZ"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustMint(t, r, alice, grid.Coord{X: 1})
	if _, err := r.Mint(alice, coins(50), 0, grid.Coord{X: 2}, ""); KindOf(err) != KindWalletLimit {
		t.Fatalf("err=%v want wallet_limit", err)
	}
}

func TestMove(t *testing.T) {
	r := newTestRegistry(t)
	id := mustMint(t, r, alice, grid.Coord{})

	// Distance 4: fee 10 + 2*4 = 18, duration 1000 + 500*4 = 3000.
	dest := grid.Coord{X: 3, Y: 1}
	rcpt, err := r.Move(alice, coins(18), 10, id, dest)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if rcpt.Fee.Amount != 18 || rcpt.DurationNanos != 3000 || rcpt.Arrival != 3010 {
		t.Fatalf("receipt %+v: want fee 18, duration 3000, arrival 3010", rcpt)
	}

	tok, _ := r.XyzNftInfo(id)
	ext := tok.Extension
	if ext.Coordinates != dest {
		t.Fatalf("coordinates=%v want %v", ext.Coordinates, dest)
	}
	if ext.PrevCoordinates == nil || *ext.PrevCoordinates != (grid.Coord{}) {
		t.Fatalf("prev=%v want origin", ext.PrevCoordinates)
	}
	if !ext.InTransit() || ext.Arrived(10) {
		t.Fatalf("token should be mid-flight at commit time")
	}
	if !ext.Arrived(3010) {
		t.Fatalf("token should have arrived at arrival time")
	}

	// The position index follows the committed position.
	if _, ok := r.PositionFor(grid.Coord{}); ok {
		t.Fatalf("origin still occupied after move")
	}
	if got, _ := r.PositionFor(dest); got != id {
		t.Fatalf("dest holds %q want %q", got, id)
	}
}

func TestMoveRejections(t *testing.T) {
	r := newTestRegistry(t)
	id := mustMint(t, r, alice, grid.Coord{})
	other := mustMint(t, r, bob, grid.Coord{X: 5})

	cases := []struct {
		name   string
		sender string
		funds  []econ.Coin
		token  string
		dest   grid.Coord
		want   Kind
	}{
		{"not owner", bob, coins(100), id, grid.Coord{X: 1}, KindUnauthorized},
		{"unknown token", alice, coins(100), "xyz #99", grid.Coord{X: 1}, KindNotFound},
		{"out of bounds", alice, coins(1000), id, grid.Coord{X: 101}, KindOutOfBounds},
		{"occupied", alice, coins(100), id, grid.Coord{X: 5}, KindPositionOccupied},
		{"underpaid", alice, coins(17), id, grid.Coord{X: 3, Y: 1}, KindInsufficientPayment},
		{"wrong denom", alice, []econ.Coin{{Denom: "shells", Amount: 100}}, id, grid.Coord{X: 1}, KindWrongDenomination},
	}
	for _, c := range cases {
		_, err := r.Move(c.sender, c.funds, 0, c.token, c.dest)
		if KindOf(err) != c.want {
			t.Fatalf("%s: err=%v want %s", c.name, err, c.want)
		}
	}

	// Nothing moved, nothing charged.
	tok, _ := r.XyzNftInfo(id)
	if tok.Extension.Coordinates != (grid.Coord{}) || tok.Extension.PrevCoordinates != nil || tok.Extension.Arrival != 0 {
		t.Fatalf("rejected moves mutated token: %+v", tok.Extension)
	}
	if r.Balance("tokens") != 50 {
		t.Fatalf("balance=%d want only the mint fees", r.Balance("tokens"))
	}
	_ = other
}

func TestMoveByApprovedSpender(t *testing.T) {
	r := newTestRegistry(t)
	id := mustMint(t, r, alice, grid.Coord{})
	if err := r.Ledger().Approve(alice, bob, id, nil, 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := r.Move(bob, coins(12), 0, id, grid.Coord{X: 1}); err != nil {
		t.Fatalf("approved move: %v", err)
	}
}

func TestMoveWhileInTransit(t *testing.T) {
	r := newTestRegistry(t)
	id := mustMint(t, r, alice, grid.Coord{})

	first, err := r.Move(alice, coins(12), 0, id, grid.Coord{X: 1})
	if err != nil {
		t.Fatalf("first move: %v", err)
	}

	// A second move before arrival is allowed; it re-derives fee and
	// duration from the committed position (1,0,0).
	second, err := r.Move(alice, coins(14), 100, id, grid.Coord{X: 3})
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	if second.Fee.Amount != 14 || second.DurationNanos != 2000 {
		t.Fatalf("receipt %+v: want fee 14, duration 2000 for distance 2", second)
	}
	if second.Arrival != 2100 {
		t.Fatalf("arrival=%d want 2100", second.Arrival)
	}
	tok, _ := r.XyzNftInfo(id)
	if *tok.Extension.PrevCoordinates != (grid.Coord{X: 1}) {
		t.Fatalf("prev=%v want (1,0,0)", tok.Extension.PrevCoordinates)
	}
	_ = first
}

func TestMoveZeroStep(t *testing.T) {
	r := newTestRegistry(t)
	pos := grid.Coord{X: 2, Y: 2}
	id := mustMint(t, r, alice, pos)

	// Moving onto your own position is a zero-step move: base fee only.
	rcpt, err := r.Move(alice, coins(10), 0, id, pos)
	if err != nil {
		t.Fatalf("zero-step move: %v", err)
	}
	if rcpt.Fee.Amount != 10 || rcpt.DurationNanos != 1000 {
		t.Fatalf("receipt %+v: want base fee and base duration", rcpt)
	}
	if got, _ := r.PositionFor(pos); got != id {
		t.Fatalf("position index lost the token on zero-step move")
	}
}

func TestUpdateConfig(t *testing.T) {
	r := newTestRegistry(t)

	cfg := testConfig()
	cfg.BaseMoveFee.Amount = 99
	if err := r.UpdateConfig(alice, cfg); KindOf(err) != KindUnauthorized {
		t.Fatalf("non-owner update: err=%v want unauthorized", err)
	}
	if err := r.UpdateConfig(owner, cfg); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, version := r.Config()
	if got.BaseMoveFee.Amount != 99 || version != 2 {
		t.Fatalf("config=%+v version=%d", got, version)
	}

	bad := cfg
	bad.MaxCoordinateValue = -1
	if err := r.UpdateConfig(owner, bad); KindOf(err) != KindInvalidConfig {
		t.Fatalf("invalid config: err=%v want invalid_config", err)
	}
}

func TestUpdateCaptchaPublicKey(t *testing.T) {
	r := newTestRegistry(t)
	key := strings.Repeat("ab", 32)
	if err := r.UpdateCaptchaPublicKey(alice, key); KindOf(err) != KindUnauthorized {
		t.Fatalf("err=%v want unauthorized", err)
	}
	if err := r.UpdateCaptchaPublicKey(owner, "deadbeef"); KindOf(err) != KindInvalidConfig {
		t.Fatalf("short key: err=%v want invalid_config", err)
	}
	if err := r.UpdateCaptchaPublicKey(owner, key); err != nil {
		t.Fatalf("update: %v", err)
	}
	if r.CaptchaPublicKey() != key {
		t.Fatalf("key=%q", r.CaptchaPublicKey())
	}
	// Clearing the key reopens minting.
	if err := r.UpdateCaptchaPublicKey(owner, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := r.Mint(alice, coins(50), 0, grid.Coord{X: 9}, "anything"); err != nil {
		t.Fatalf("mint after clearing key: %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	r := newTestRegistry(t)
	mustMint(t, r, alice, grid.Coord{X: 1})
	mustMint(t, r, bob, grid.Coord{X: 2})

	if err := r.Withdraw(alice, coins(10)); KindOf(err) != KindUnauthorized {
		t.Fatalf("non-owner withdraw: err=%v want unauthorized", err)
	}
	if err := r.Withdraw(owner, coins(101)); KindOf(err) != KindInsufficientPayment {
		t.Fatalf("overdraw: err=%v want insufficient_payment", err)
	}
	if r.Balance("tokens") != 100 {
		t.Fatalf("failed withdraw changed balance")
	}
	if err := r.Withdraw(owner, coins(60)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if r.Balance("tokens") != 40 {
		t.Fatalf("balance=%d want 40", r.Balance("tokens"))
	}
}

func TestMigrate(t *testing.T) {
	r := newTestRegistry(t)
	cfg := testConfig()
	cfg.WalletLimit = 42
	if err := r.Migrate(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	got, version := r.Config()
	if got.WalletLimit != 42 || version != 2 {
		t.Fatalf("config=%+v version=%d", got, version)
	}
}

func TestQueries(t *testing.T) {
	r := newTestRegistry(t)
	a := mustMint(t, r, alice, grid.Coord{X: 1})
	mustMint(t, r, alice, grid.Coord{X: 2})
	mustMint(t, r, bob, grid.Coord{X: 3})

	if got := r.NumTokensForOwner(alice); got != 2 {
		t.Fatalf("NumTokensForOwner=%d want 2", got)
	}
	if got := len(r.XyzTokens(alice, "", 30)); got != 2 {
		t.Fatalf("XyzTokens len=%d want 2", got)
	}
	if got := len(r.AllXyzTokens("", 30)); got != 3 {
		t.Fatalf("AllXyzTokens len=%d want 3", got)
	}

	tok, err := r.XyzNftInfoByCoords(grid.Coord{X: 1})
	if err != nil || tok.ID != a {
		t.Fatalf("by coords: tok=%+v err=%v", tok, err)
	}
	if _, err := r.XyzNftInfoByCoords(grid.Coord{X: 50}); KindOf(err) != KindNotFound {
		t.Fatalf("empty position: err=%v want not_found", err)
	}

	fee, nanos, err := r.MoveParams(a, grid.Coord{X: 1, Y: 4})
	if err != nil {
		t.Fatalf("MoveParams: %v", err)
	}
	if fee.Amount != 18 || nanos != 3000 {
		t.Fatalf("quote fee=%d nanos=%d want 18/3000", fee.Amount, nanos)
	}
	// Quoting never mutates.
	tok, _ = r.XyzNftInfo(a)
	if tok.Extension.Coordinates != (grid.Coord{X: 1}) {
		t.Fatalf("quote moved the token")
	}
}

func TestStateRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	id := mustMint(t, r, alice, grid.Coord{X: 1})
	if _, err := r.Move(alice, coins(12), 5, id, grid.Coord{X: 2}); err != nil {
		t.Fatalf("move: %v", err)
	}
	r.Ledger().ApproveAll(alice, bob, nil)

	restored, err := FromState(r.Export(), AcceptAll{})
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}

	tok, err := restored.XyzNftInfo(id)
	if err != nil {
		t.Fatalf("restored info: %v", err)
	}
	if tok.Extension.Coordinates != (grid.Coord{X: 2}) || !tok.Extension.InTransit() {
		t.Fatalf("restored extension %+v", tok.Extension)
	}
	if got, _ := restored.PositionFor(grid.Coord{X: 2}); got != id {
		t.Fatalf("restored position index missing %s", id)
	}
	if restored.Balance("tokens") != r.Balance("tokens") {
		t.Fatalf("restored balance differs")
	}
	// Operator grants survive.
	if err := restored.Ledger().Authorize(bob, id, 0); err != nil {
		t.Fatalf("restored operator grant: %v", err)
	}
	// The id counter continues where it left off.
	next := mustMint(t, restored, bob, grid.Coord{X: 9})
	if next != "xyz #2" {
		t.Fatalf("next id %q want %q", next, "xyz #2")
	}
}
