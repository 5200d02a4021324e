package tx

import "github.com/Klingon-tech/octra-wallet/pkg/types"

// Fee tiers ("ou" on the wire). Transfers below HighFeeThreshold pay the
// low tier, everything else the high tier.
const (
	FeeTierLow  = "1"
	FeeTierHigh = "3"

	HighFeeThreshold = types.Amount(1000 * types.Coin)
)

// FeeTierFor returns the fee tier for a transfer of the given amount.
func FeeTierFor(amount types.Amount) string {
	if amount < HighFeeThreshold {
		return FeeTierLow
	}
	return FeeTierHigh
}
