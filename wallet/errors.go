package wallet

import "errors"

var (
	// ErrMissingRPCURL ...
	ErrMissingRPCURL = errors.New("no RPC endpoint configured")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be empty")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be empty")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrInvalidDerivationPathLength ...
	ErrInvalidDerivationPathLength = errors.New(
		"derivation path must be a relative path in the form \"account'/change/index\"",
	)
	// ErrInvalidDerivationPathAccount ...
	ErrInvalidDerivationPathAccount = errors.New(
		"derivation path's account (first elem) must be hardened (suffix \"'\")",
	)
	// ErrNegativeAccountIndex ...
	ErrNegativeAccountIndex = errors.New("account index must not be negative")

	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)

	// ErrNilTransaction ...
	ErrNilTransaction = errors.New("transaction must not be nil")
	// ErrZeroTransferAmount ...
	ErrZeroTransferAmount = errors.New("transfer amount must not be zero")
	// ErrMaxFeeExceeded ...
	ErrMaxFeeExceeded = errors.New("estimated fee exceeds the configured maximum")

	// ErrInvalidSignatureLength ...
	ErrInvalidSignatureLength = errors.New("signature must be 64 bytes")

	// ErrWalletDisposed ...
	ErrWalletDisposed = errors.New("wallet manager has been disposed")
	// ErrAccountDisposed ...
	ErrAccountDisposed = errors.New("account has been disposed")
)
