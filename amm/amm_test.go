package amm

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputZeroWhenReserveIsZero(t *testing.T) {
	require.Equal(t, int64(0), Output(big.NewInt(1000), big.NewInt(0), big.NewInt(1000), PumpSwapFeeBps).Int64())
	require.Equal(t, int64(0), Output(big.NewInt(1000), big.NewInt(1000), big.NewInt(0), PumpSwapFeeBps).Int64())
}

func TestOutputMonotoneIncreasingAndConcave(t *testing.T) {
	rin := big.NewInt(100_000_000_000)
	rout := big.NewInt(1_000_000_000_000)

	var prevOut, prevRatio *big.Int
	for _, amt := range []int64{1_000_000, 2_000_000, 4_000_000, 8_000_000} {
		a := big.NewInt(amt)
		out := Output(a, rin, rout, PumpSwapFeeBps)
		require.True(t, out.Sign() > 0)

		if prevOut != nil {
			require.True(t, out.Cmp(prevOut) > 0, "output must strictly increase with input size")
		}

		// output/a ratio, scaled, should strictly decrease (concavity)
		ratio := new(big.Int).Mul(out, big.NewInt(1_000_000))
		ratio.Div(ratio, a)
		if prevRatio != nil {
			require.True(t, ratio.Cmp(prevRatio) < 0, "per-unit output must strictly decrease as size grows")
		}
		prevOut, prevRatio = out, ratio
	}
}

func TestRoundTripLosesToFee(t *testing.T) {
	rin := big.NewInt(100_000_000_000)  // 100 SOL
	rout := big.NewInt(1_000_000_000_000) // 1e12 tokens

	input := big.NewInt(1_000_000_000) // 1 SOL
	tokensOut := Output(input, rin, rout, PumpSwapFeeBps)

	newRin := new(big.Int).Add(rin, input)
	newRout := new(big.Int).Sub(rout, tokensOut)

	solBack := Output(tokensOut, newRout, newRin, PumpSwapFeeBps)
	require.True(t, solBack.Cmp(input) < 0, "round trip must return strictly less than was put in")

	twoSidedFee := new(big.Int).Mul(big.NewInt(2*PumpSwapFeeBps), input)
	twoSidedFee.Div(twoSidedFee, big.NewInt(10000))
	loss := new(big.Int).Sub(input, solBack)
	require.True(t, loss.Cmp(twoSidedFee) > 0, "round-trip loss should exceed the naive two-sided fee due to concavity")
}

func TestDecodePoolState(t *testing.T) {
	buf := make([]byte, 10+32+8*3)
	for i := range buf[:10] {
		buf[i] = 0xAB
	}
	copy(buf[10:42], []byte("01234567890123456789012345678901"))
	binary.LittleEndian.PutUint64(buf[42:50], 5_000_000_000)
	binary.LittleEndian.PutUint64(buf[50:58], 900_000_000_000)
	binary.LittleEndian.PutUint64(buf[58:66], 1_000_000)

	ps, err := DecodePoolState("POOL", buf)
	require.NoError(t, err)
	require.EqualValues(t, 5_000_000_000, ps.SOLReserve)
	require.EqualValues(t, 900_000_000_000, ps.TokenReserve)
	require.InDelta(t, 5.0, ps.LiquiditySOL(), 0.0001)
}

func TestDecodePoolStateRejectsShortBuffer(t *testing.T) {
	_, err := DecodePoolState("POOL", []byte{1, 2, 3})
	require.Error(t, err)
}
