package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrDerivedAddress means no valid program derived address exists for the
// given seeds. Derivation failures are never retried.
var ErrDerivedAddress = errors.New("no valid program derived address")

// FindProgramAddress derives the program address for seeds under programID.
// It walks bump seeds from 255 down until the resulting point falls off the
// ed25519 curve.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	programBytes, err := base58.Decode(programID)
	if err != nil {
		return "", 0, fmt.Errorf("%w: decode program id %q: %v", ErrDerivedAddress, programID, err)
	}
	if len(programBytes) != 32 {
		return "", 0, fmt.Errorf("%w: program id %q is %d bytes, want 32", ErrDerivedAddress, programID, len(programBytes))
	}

	for bump := 255; bump > 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programBytes)
		h.Write([]byte("ProgramDerivedAddress"))
		digest := h.Sum(nil)

		if !isOnCurve(digest) {
			return base58.Encode(digest), uint8(bump), nil
		}
	}

	return "", 0, ErrDerivedAddress
}

// DecodePubkey validates a base58 public key and returns its raw 32 bytes.
func DecodePubkey(pubkey string) ([]byte, error) {
	raw, err := base58.Decode(pubkey)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", pubkey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("pubkey %q is %d bytes, want 32", pubkey, len(raw))
	}
	return raw, nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
