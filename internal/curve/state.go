// Package curve decodes pump.fun bonding-curve account state and derives the
// program address that holds it.
package curve

import (
	"encoding/binary"
	"errors"
	"fmt"

	"solana-wallet-lens/internal/solana"
)

// ErrShortBuffer means the account buffer is smaller than the fixed layout.
// A malformed buffer is never retried; pricing on top of it would be unsafe.
var ErrShortBuffer = errors.New("curve account buffer too short")

// stateSeed is the PDA seed prefix for bonding-curve accounts.
const stateSeed = "bonding-curve"

// Bonding-curve account layout, all integers unsigned little-endian:
// discriminator u64, virtualTokenReserves u64, virtualSolReserves u64,
// realTokenReserves u64, realSolReserves u64, tokenTotalSupply u64,
// complete u8.
const stateSize = 8 + 5*8 + 1

// State is decoded bonding-curve account data. Once the curve completes,
// its reserves are no longer authoritative for pricing.
type State struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// DecodeState parses a raw bonding-curve account buffer.
func DecodeState(buf []byte) (*State, error) {
	if len(buf) < stateSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrShortBuffer, len(buf), stateSize)
	}

	// Skip the 8-byte account discriminator.
	return &State{
		VirtualTokenReserves: binary.LittleEndian.Uint64(buf[8:16]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(buf[16:24]),
		RealTokenReserves:    binary.LittleEndian.Uint64(buf[24:32]),
		RealSolReserves:      binary.LittleEndian.Uint64(buf[32:40]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(buf[40:48]),
		Complete:             buf[48] != 0,
	}, nil
}

// StateAddress derives the bonding-curve account address for a mint under
// the given program.
func StateAddress(mint, programID string) (string, error) {
	mintBytes, err := solana.DecodePubkey(mint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", solana.ErrDerivedAddress, err)
	}

	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(stateSeed), mintBytes}, programID)
	if err != nil {
		return "", err
	}
	return addr, nil
}
