package wallet

import (
	"context"
	"fmt"
	"math"
)

// FeeRates holds fee estimates in lamports for the two supported speed
// tiers.
type FeeRates struct {
	Normal uint64 `json:"normal"`
	Fast   uint64 `json:"fast"`
}

// FeeRates samples the recent prioritization fees of the RPC node and
// derives the normal and fast rates from them. Results are never cached,
// every call hits the network.
func (m *Manager) FeeRates(ctx context.Context) (FeeRates, error) {
	if err := m.guard(); err != nil {
		return FeeRates{}, err
	}
	if m.rpc == nil {
		return FeeRates{}, ErrMissingRPCURL
	}

	results, err := m.rpc.GetRecentPrioritizationFees(ctx, nil)
	if err != nil {
		return FeeRates{}, fmt.Errorf("failed to get recent prioritization fees: %w", err)
	}

	samples := make([]uint64, 0, len(results))
	for _, r := range results {
		samples = append(samples, r.PrioritizationFee)
	}
	return computeFeeRates(samples), nil
}

// computeFeeRates picks the maximum strictly positive sample as the base
// fee, falling back to DefaultBaseFee when all samples are zero, and scales
// it into the two tiers.
func computeFeeRates(samples []uint64) FeeRates {
	var base uint64
	for _, s := range samples {
		if s > base {
			base = s
		}
	}
	if base == 0 {
		base = DefaultBaseFee
	}

	return FeeRates{
		Normal: uint64(math.Round(float64(base) * normalFeeMultiplier)),
		Fast:   uint64(math.Round(float64(base) * fastFeeMultiplier)),
	}
}
