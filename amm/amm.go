// Package amm implements the constant-product swap math and pool-state
// decoding shared by the paper simulator and live quoting. The formula and
// fee (25 bps, matching PumpSwap) are specified in spec.md §4.5.
package amm

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// PumpSwapFeeBps is the default swap fee for PumpSwap pools.
const PumpSwapFeeBps = 25

// Output computes the constant-product swap output for input amount a
// against reserves (reserveIn, reserveOut), after deducting feeBps from a.
// Properties: Output is strictly increasing in a; Output/a is strictly
// decreasing in a (concave); Output is zero if either reserve is zero.
// All quantities are raw on-chain integer units (lamports / token base
// units), hence big.Int rather than decimal.
func Output(a, reserveIn, reserveOut *big.Int, feeBps int64) *big.Int {
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 || a.Sign() <= 0 {
		return big.NewInt(0)
	}

	tenThousand := big.NewInt(10000)
	feeMultiplier := new(big.Int).Sub(tenThousand, big.NewInt(feeBps))

	aAfterFee := new(big.Int).Mul(a, feeMultiplier)
	aAfterFee.Div(aAfterFee, tenThousand)

	numerator := new(big.Int).Mul(aAfterFee, reserveOut)
	denominator := new(big.Int).Add(reserveIn, aAfterFee)
	if denominator.Sign() == 0 {
		return big.NewInt(0)
	}

	return numerator.Div(numerator, denominator)
}

// PoolState is the decoded on-chain state of a constant-product pool.
// Reserves are raw u64 units: SOLReserve in lamports, TokenReserve in the
// mint's base units.
type PoolState struct {
	PoolAddress  string
	TokenMint    string
	SOLReserve   uint64
	TokenReserve uint64
	LPSupply     uint64
}

// PriceSOL returns sol_reserves / token_reserves, the pool's instantaneous
// price of one base token unit in lamports. Callers scale by the mint's
// decimals to get a human price.
func (p PoolState) PriceSOL() float64 {
	if p.TokenReserve == 0 {
		return 0
	}
	return float64(p.SOLReserve) / float64(p.TokenReserve)
}

// LiquiditySOL converts the lamport-denominated SOL side of the pool into
// whole SOL (9 decimals).
func (p PoolState) LiquiditySOL() float64 {
	return float64(p.SOLReserve) / 1e9
}

// DecodePoolState parses a pool account's raw bytes into a PoolState.
// Layout (provisional — spec.md §9 flags this as unverified against the
// venue's published program layout and instructs treating it as such):
// a 10-byte header, a 32-byte mint, then three little-endian u64 reserves
// (SOL reserve, token reserve, LP supply).
func DecodePoolState(poolAddress string, data []byte) (PoolState, error) {
	const headerLen = 10
	const mintLen = 32
	const u64Len = 8
	minLen := headerLen + mintLen + 3*u64Len

	if len(data) < minLen {
		return PoolState{}, fmt.Errorf("pool account too short: got %d bytes, need at least %d", len(data), minLen)
	}

	off := headerLen
	mint := data[off : off+mintLen]
	off += mintLen

	solReserve := binary.LittleEndian.Uint64(data[off : off+u64Len])
	off += u64Len
	tokenReserve := binary.LittleEndian.Uint64(data[off : off+u64Len])
	off += u64Len
	lpSupply := binary.LittleEndian.Uint64(data[off : off+u64Len])

	return PoolState{
		PoolAddress:  poolAddress,
		TokenMint:    fmt.Sprintf("%x", mint),
		SOLReserve:   solReserve,
		TokenReserve: tokenReserve,
		LPSupply:     lpSupply,
	}, nil
}
