package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// Transaction describes a native transfer of lamports.
type Transaction struct {
	To       solana.PublicKey
	Lamports uint64
}

// TransferOptions describes a general transfer. A zero Mint means native
// SOL, otherwise Amount is in the token's base unit and moves between the
// associated token accounts of sender and recipient.
type TransferOptions struct {
	To     solana.PublicKey
	Amount uint64
	Mint   solana.PublicKey
}

// Quote is the estimated cost of a transfer that was not submitted.
type Quote struct {
	Fee uint64 `json:"fee"`
}

// TransferResult is the outcome of a submitted transfer.
type TransferResult struct {
	Signature solana.Signature `json:"signature"`
	Fee       uint64           `json:"fee"`
}

// Account is one derived keypair of the wallet. Accounts are created only
// by the manager and share its RPC client.
type Account struct {
	path  string
	index uint32
	cfg   Config
	rpc   *rpc.Client

	mu       sync.RWMutex
	key      solana.PrivateKey
	pub      solana.PublicKey
	disposed bool
}

func newAccount(path string, index uint32, key solana.PrivateKey, cfg Config, client *rpc.Client) *Account {
	return &Account{
		path:  path,
		index: index,
		cfg:   cfg,
		rpc:   client,
		key:   key,
		pub:   key.PublicKey(),
	}
}

// Path returns the derivation path the account was requested with.
func (a *Account) Path() string { return a.path }

// Index returns the trailing numeric component of the derivation path.
func (a *Account) Index() int { return int(a.index) }

// PublicKey returns the derived public key.
func (a *Account) PublicKey() solana.PublicKey { return a.pub }

// Address returns the base58 address of the account. It is a pure function
// of the public key but takes a context for interface uniformity.
func (a *Account) Address(ctx context.Context) (string, error) {
	if err := a.guard(); err != nil {
		return "", err
	}
	return a.pub.String(), nil
}

// SignMessage signs an arbitrary message with the account's private key.
func (a *Account) SignMessage(msg []byte) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.disposed {
		return nil, ErrAccountDisposed
	}

	sig, err := a.key.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig[:], nil
}

// VerifyMessage reports whether sig is a valid signature of msg by this
// account. An invalid signature yields false with no error, only a
// malformed signature length is an error.
func (a *Account) VerifyMessage(msg, sig []byte) (bool, error) {
	if err := a.guard(); err != nil {
		return false, err
	}
	if len(sig) != ed25519.SignatureSize {
		return false, ErrInvalidSignatureLength
	}
	return ed25519.Verify(ed25519.PublicKey(a.pub[:]), msg, sig), nil
}

// Balance returns the account's SOL balance in lamports.
func (a *Account) Balance(ctx context.Context) (uint64, error) {
	if err := a.guardOnline(); err != nil {
		return 0, err
	}

	balance, err := a.rpc.GetBalance(ctx, a.pub, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance.Value, nil
}

// TokenBalance returns the balance of the account's associated token
// account for the given mint, in the token's base unit. A missing
// associated account simply means a zero balance.
func (a *Account) TokenBalance(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	if err := a.guardOnline(); err != nil {
		return 0, err
	}

	ata, _, err := solana.FindAssociatedTokenAddress(a.pub, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to find associated token address: %w", err)
	}

	balance, err := a.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentFinalized)
	if err != nil {
		if err == rpc.ErrNotFound || strings.Contains(err.Error(), "could not find account") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token account balance for ATA %s: %w", ata.String(), err)
	}
	if balance.Value == nil {
		return 0, nil
	}

	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token amount string: %w", err)
	}
	return amount, nil
}

// SendTransaction builds, signs and submits a native transfer.
func (a *Account) SendTransaction(ctx context.Context, tx *Transaction) (*TransferResult, error) {
	if err := a.guardOnline(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrNilTransaction
	}

	unsigned, fee, err := a.buildNativeTransfer(ctx, tx.To, tx.Lamports)
	if err != nil {
		return nil, err
	}

	sig, err := a.signAndSend(ctx, unsigned)
	if err != nil {
		return nil, err
	}
	return &TransferResult{Signature: sig, Fee: fee}, nil
}

// QuoteSendTransaction computes the cost of a native transfer without
// submitting anything.
func (a *Account) QuoteSendTransaction(ctx context.Context, tx *Transaction) (*Quote, error) {
	if err := a.guardOnline(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrNilTransaction
	}

	_, fee, err := a.buildNativeTransfer(ctx, tx.To, tx.Lamports)
	if err != nil {
		return nil, err
	}
	return &Quote{Fee: fee}, nil
}

// Transfer moves native SOL or SPL tokens to a recipient, enforcing the
// configured fee cap. When the recipient's associated token account does
// not exist yet it is created within the same transaction.
func (a *Account) Transfer(ctx context.Context, opts TransferOptions) (*TransferResult, error) {
	if err := a.guardOnline(); err != nil {
		return nil, err
	}

	unsigned, fee, err := a.buildTransfer(ctx, opts)
	if err != nil {
		return nil, err
	}
	if a.cfg.TransferMaxFee > 0 && fee > a.cfg.TransferMaxFee {
		return nil, fmt.Errorf("estimated fee %d lamports: %w", fee, ErrMaxFeeExceeded)
	}

	sig, err := a.signAndSend(ctx, unsigned)
	if err != nil {
		return nil, err
	}
	return &TransferResult{Signature: sig, Fee: fee}, nil
}

// QuoteTransfer computes the cost of a transfer without submitting
// anything. The fee cap applies the same way it does on Transfer.
func (a *Account) QuoteTransfer(ctx context.Context, opts TransferOptions) (*Quote, error) {
	if err := a.guardOnline(); err != nil {
		return nil, err
	}

	_, fee, err := a.buildTransfer(ctx, opts)
	if err != nil {
		return nil, err
	}
	if a.cfg.TransferMaxFee > 0 && fee > a.cfg.TransferMaxFee {
		return nil, fmt.Errorf("estimated fee %d lamports: %w", fee, ErrMaxFeeExceeded)
	}
	return &Quote{Fee: fee}, nil
}

// TransactionReceipt looks up a transaction by signature. A transaction
// that is not yet confirmed yields (nil, nil), any other RPC failure
// propagates.
func (a *Account) TransactionReceipt(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	if err := a.guardOnline(); err != nil {
		return nil, err
	}

	maxVersion := uint64(0)
	receipt, err := a.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if err == rpc.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return receipt, nil
}

// Close erases the private key material. Any later operation fails with
// ErrAccountDisposed. It is idempotent.
func (a *Account) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.disposed {
		return nil
	}
	zeroBytes(a.key)
	a.key = nil
	a.disposed = true
	return nil
}

// Disposed reports whether the account's key material has been erased.
func (a *Account) Disposed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.disposed
}

func (a *Account) guard() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.disposed {
		return ErrAccountDisposed
	}
	return nil
}

func (a *Account) guardOnline() error {
	if err := a.guard(); err != nil {
		return err
	}
	if a.rpc == nil {
		return ErrMissingRPCURL
	}
	return nil
}

func (a *Account) buildNativeTransfer(ctx context.Context, to solana.PublicKey, lamports uint64) (*solana.Transaction, uint64, error) {
	if lamports == 0 {
		return nil, 0, ErrZeroTransferAmount
	}

	instruction := system.NewTransferInstruction(lamports, a.pub, to).Build()
	return a.assembleTransaction(ctx, []solana.Instruction{instruction})
}

func (a *Account) buildTransfer(ctx context.Context, opts TransferOptions) (*solana.Transaction, uint64, error) {
	if opts.Mint.IsZero() {
		return a.buildNativeTransfer(ctx, opts.To, opts.Amount)
	}
	if opts.Amount == 0 {
		return nil, 0, ErrZeroTransferAmount
	}

	source, _, err := solana.FindAssociatedTokenAddress(a.pub, opts.Mint)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find source associated token address: %w", err)
	}
	destination, _, err := solana.FindAssociatedTokenAddress(opts.To, opts.Mint)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find destination associated token address: %w", err)
	}

	instructions := make([]solana.Instruction, 0, 2)

	// The recipient may never have held this token. Creating the ATA in the
	// same transaction keeps the transfer atomic.
	if _, err := a.rpc.GetAccountInfo(ctx, destination); err != nil {
		if err != rpc.ErrNotFound {
			return nil, 0, fmt.Errorf("failed to check destination token account: %w", err)
		}
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			a.pub,
			opts.To,
			opts.Mint,
		).Build())
	}

	instructions = append(instructions, token.NewTransferInstruction(
		opts.Amount,
		source,
		destination,
		a.pub,
		[]solana.PublicKey{},
	).Build())

	return a.assembleTransaction(ctx, instructions)
}

// assembleTransaction attaches the latest blockhash and estimates the fee
// of the resulting message.
func (a *Account) assembleTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, uint64, error) {
	latestBlockhash, err := a.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		latestBlockhash.Value.Blockhash,
		solana.TransactionPayer(a.pub),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create transaction: %w", err)
	}

	fee, err := a.estimateFee(ctx, tx)
	if err != nil {
		return nil, 0, err
	}
	return tx, fee, nil
}

func (a *Account) estimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize transaction message: %w", err)
	}

	resp, err := a.rpc.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(msg), rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get fee for message: %w", err)
	}
	if resp.Value == nil {
		// The node does not know the blockhash yet, fall back to the flat
		// per-signature fee.
		return DefaultBaseFee, nil
	}
	return *resp.Value, nil
}

func (a *Account) signAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	a.mu.RLock()
	if a.disposed {
		a.mu.RUnlock()
		return solana.Signature{}, ErrAccountDisposed
	}
	_, err := tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			if a.pub.Equals(key) {
				return &a.key
			}
			return nil
		},
	)
	a.mu.RUnlock()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := a.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}
