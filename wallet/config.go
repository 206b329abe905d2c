package wallet

import "strings"

const (
	// DefaultBaseFee is the fallback base fee in lamports, used when the RPC
	// node reports no strictly positive prioritization-fee sample.
	DefaultBaseFee uint64 = 5000

	normalFeeMultiplier = 1.1
	fastFeeMultiplier   = 2.0
)

// Config carries the network settings of a wallet manager. It is immutable
// after construction.
type Config struct {
	// RPCURL is the HTTP endpoint of the Solana RPC node. It may be left
	// empty, in which case every operation that touches the network fails
	// with ErrMissingRPCURL while offline operations (derivation, signing)
	// keep working.
	RPCURL string

	// WSURL is the websocket endpoint used for confirmation subscriptions.
	// When empty it is derived from RPCURL.
	WSURL string

	// TransferMaxFee caps the estimated fee of transfers in lamports.
	// Zero means no cap.
	TransferMaxFee uint64
}

// wsEndpoint returns the websocket endpoint to subscribe on, deriving one
// from the RPC endpoint when none was configured.
func (c Config) wsEndpoint() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	if u, ok := strings.CutPrefix(c.RPCURL, "https://"); ok {
		return "wss://" + u
	}
	if u, ok := strings.CutPrefix(c.RPCURL, "http://"); ok {
		return "ws://" + u
	}
	return c.RPCURL
}
