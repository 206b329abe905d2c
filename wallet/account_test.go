package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(t *testing.T) *Account {
	t.Helper()
	manager, err := New(testSeed(), Config{})
	require.NoError(t, err)
	account, err := manager.Account(0)
	require.NoError(t, err)
	return account
}

func TestAccountAddress(t *testing.T) {
	account := testAccount(t)

	addr, err := account.Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey().String(), addr)

	// base58 addresses decode back to the public key
	pk, err := solana.PublicKeyFromBase58(addr)
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey(), pk)
}

func TestSignAndVerifyMessage(t *testing.T) {
	account := testAccount(t)
	msg := []byte("message to be signed")

	sig, err := account.SignMessage(msg)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	ok, err := account.VerifyMessage(msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("tampered message", func(t *testing.T) {
		ok, err := account.VerifyMessage([]byte("another message"), sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered signature", func(t *testing.T) {
		tampered := make([]byte, len(sig))
		copy(tampered, sig)
		tampered[0] ^= 0xff
		ok, err := account.VerifyMessage(msg, tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed signature", func(t *testing.T) {
		_, err := account.VerifyMessage(msg, []byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrInvalidSignatureLength)
	})

	t.Run("other account cannot verify", func(t *testing.T) {
		manager, err := New(testSeed(), Config{})
		require.NoError(t, err)
		other, err := manager.Account(1)
		require.NoError(t, err)

		ok, err := other.VerifyMessage(msg, sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAccountOfflineOperationsRequireRPC(t *testing.T) {
	account := testAccount(t)
	ctx := context.Background()

	_, err := account.Balance(ctx)
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.TokenBalance(ctx, solana.PublicKey{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.SendTransaction(ctx, &Transaction{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.QuoteSendTransaction(ctx, &Transaction{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.Transfer(ctx, TransferOptions{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.QuoteTransfer(ctx, TransferOptions{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.TransactionReceipt(ctx, solana.Signature{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	_, err = account.History(ctx, 10)
	assert.ErrorIs(t, err, ErrMissingRPCURL)

	err = account.WaitForConfirmation(ctx, solana.Signature{})
	assert.ErrorIs(t, err, ErrMissingRPCURL)
}

func TestAccountClose(t *testing.T) {
	account := testAccount(t)
	require.NoError(t, account.Close())
	assert.True(t, account.Disposed())

	_, err := account.SignMessage([]byte("hello"))
	assert.ErrorIs(t, err, ErrAccountDisposed)

	_, err = account.Address(context.Background())
	assert.ErrorIs(t, err, ErrAccountDisposed)

	_, err = account.VerifyMessage([]byte("hello"), make([]byte, 64))
	assert.ErrorIs(t, err, ErrAccountDisposed)

	_, err = account.Balance(context.Background())
	assert.ErrorIs(t, err, ErrAccountDisposed)

	// idempotent
	require.NoError(t, account.Close())
}

func TestAccountPathAndIndex(t *testing.T) {
	manager, err := New(testSeed(), Config{})
	require.NoError(t, err)

	account, err := manager.AccountByPath("3'/1/9")
	require.NoError(t, err)
	assert.Equal(t, "3'/1/9", account.Path())
	assert.Equal(t, 9, account.Index())
}

// rpcStub answers JSON-RPC requests with canned results and records every
// method it served.
type rpcStub struct {
	mu      sync.Mutex
	calls   []string
	results map[string]string
	errors  map[string]string
}

func newRPCStub() *rpcStub {
	return &rpcStub{
		results: map[string]string{},
		errors:  map[string]string{},
	}
}

func (s *rpcStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, req.Method)
	result, hasResult := s.results[req.Method]
	errMsg, hasError := s.errors[req.Method]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case hasError:
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32602,"message":%q}}`, req.ID, errMsg)
	case hasResult:
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	default:
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not handled"}}`, req.ID)
	}
}

func (s *rpcStub) called(method string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.calls {
		if m == method {
			return true
		}
	}
	return false
}

const stubBlockhashResult = `{"context":{"slot":1},"value":{"blockhash":"EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N","lastValidBlockHeight":3090}}`

func testOnlineAccount(t *testing.T, stub *rpcStub, cfg Config) *Account {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	cfg.RPCURL = srv.URL
	manager, err := New(testSeed(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	account, err := manager.Account(0)
	require.NoError(t, err)
	return account
}

func TestTransferFeeCap(t *testing.T) {
	recipient := solana.NewWallet().PublicKey()

	t.Run("fee above cap fails without submitting", func(t *testing.T) {
		stub := newRPCStub()
		stub.results["getLatestBlockhash"] = stubBlockhashResult
		stub.results["getFeeForMessage"] = `{"context":{"slot":1},"value":10000}`

		account := testOnlineAccount(t, stub, Config{TransferMaxFee: 5000})

		_, err := account.Transfer(context.Background(), TransferOptions{To: recipient, Amount: 1000})
		assert.ErrorIs(t, err, ErrMaxFeeExceeded)

		_, err = account.QuoteTransfer(context.Background(), TransferOptions{To: recipient, Amount: 1000})
		assert.ErrorIs(t, err, ErrMaxFeeExceeded)

		assert.False(t, stub.called("sendTransaction"))
	})

	t.Run("fee within cap submits", func(t *testing.T) {
		wantSig := solana.SignatureFromBytes(bytes.Repeat([]byte{7}, 64))

		stub := newRPCStub()
		stub.results["getLatestBlockhash"] = stubBlockhashResult
		stub.results["getFeeForMessage"] = `{"context":{"slot":1},"value":4000}`
		stub.results["sendTransaction"] = fmt.Sprintf("%q", wantSig.String())

		account := testOnlineAccount(t, stub, Config{TransferMaxFee: 5000})

		quote, err := account.QuoteTransfer(context.Background(), TransferOptions{To: recipient, Amount: 1000})
		require.NoError(t, err)
		assert.Equal(t, uint64(4000), quote.Fee)
		assert.False(t, stub.called("sendTransaction"))

		result, err := account.Transfer(context.Background(), TransferOptions{To: recipient, Amount: 1000})
		require.NoError(t, err)
		assert.Equal(t, uint64(4000), result.Fee)
		assert.Equal(t, wantSig, result.Signature)
		assert.True(t, stub.called("sendTransaction"))
	})

	t.Run("no cap on plain sends", func(t *testing.T) {
		stub := newRPCStub()
		stub.results["getLatestBlockhash"] = stubBlockhashResult
		stub.results["getFeeForMessage"] = `{"context":{"slot":1},"value":10000}`

		account := testOnlineAccount(t, stub, Config{TransferMaxFee: 5000})

		quote, err := account.QuoteSendTransaction(context.Background(), &Transaction{To: recipient, Lamports: 1000})
		require.NoError(t, err)
		assert.Equal(t, uint64(10000), quote.Fee)
	})
}

func TestTokenBalance(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	t.Run("missing associated token account means zero", func(t *testing.T) {
		stub := newRPCStub()
		stub.errors["getTokenAccountBalance"] = "Invalid param: could not find account"

		account := testOnlineAccount(t, stub, Config{})

		balance, err := account.TokenBalance(context.Background(), mint)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("existing account", func(t *testing.T) {
		stub := newRPCStub()
		stub.results["getTokenAccountBalance"] = `{"context":{"slot":1},"value":{"amount":"2500","decimals":6,"uiAmount":0.0025,"uiAmountString":"0.0025"}}`

		account := testOnlineAccount(t, stub, Config{})

		balance, err := account.TokenBalance(context.Background(), mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(2500), balance)
	})
}

func TestTransactionReceiptUnconfirmed(t *testing.T) {
	stub := newRPCStub()
	stub.results["getTransaction"] = `null`

	account := testOnlineAccount(t, stub, Config{})

	receipt, err := account.TransactionReceipt(context.Background(), solana.Signature{})
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestConfigWSEndpoint(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{RPCURL: "https://api.devnet.solana.com"}, "wss://api.devnet.solana.com"},
		{Config{RPCURL: "http://localhost:8899"}, "ws://localhost:8899"},
		{Config{RPCURL: "https://rpc.example", WSURL: "wss://ws.example"}, "wss://ws.example"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cfg.wsEndpoint())
	}
}
