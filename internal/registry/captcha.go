package registry

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"xyzgrid.io/internal/grid"
)

// Ed25519Verifier checks mint proofs issued by the captcha service: an
// ed25519 signature over "sender|x|y|z", base64-encoded.
type Ed25519Verifier struct {
	pub ed25519.PublicKey
}

// NewEd25519Verifier parses a hex-encoded public key.
func NewEd25519Verifier(hexKey string) (*Ed25519Verifier, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("captcha public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("captcha public key: got %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return &Ed25519Verifier{pub: ed25519.PublicKey(raw)}, nil
}

// ProofMessage is the byte string the captcha service signs.
func ProofMessage(sender string, coords grid.Coord) []byte {
	return []byte(fmt.Sprintf("%s|%d|%d|%d", sender, coords.X, coords.Y, coords.Z))
}

func (v *Ed25519Verifier) Verify(sender string, coords grid.Coord, proof string) error {
	sig, err := base64.StdEncoding.DecodeString(proof)
	if err != nil {
		return fmt.Errorf("proof is not base64: %w", err)
	}
	if !ed25519.Verify(v.pub, ProofMessage(sender, coords), sig) {
		return errors.New("signature does not verify")
	}
	return nil
}

// AcceptAll is the open-door verifier for tests and local development.
type AcceptAll struct{}

func (AcceptAll) Verify(string, grid.Coord, string) error { return nil }

// VerifierFor builds the verifier a stored public key implies: open door
// when the key is empty, ed25519 otherwise.
func VerifierFor(publicKey string) (Verifier, error) {
	if publicKey == "" {
		return AcceptAll{}, nil
	}
	return NewEd25519Verifier(publicKey)
}
