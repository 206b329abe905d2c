package wallet

import (
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenBalance(accountIndex uint16, owner, mint solana.PublicKey, amount string) rpc.TokenBalance {
	return rpc.TokenBalance{
		AccountIndex:  accountIndex,
		Mint:          mint,
		Owner:         &owner,
		UiTokenAmount: &rpc.UiTokenAmount{Amount: amount},
	}
}

func tokenTransferTx(pre, post []rpc.TokenBalance) *rpc.GetTransactionResult {
	return &rpc.GetTransactionResult{
		Transaction: &rpc.TransactionResultEnvelope{},
		Meta: &rpc.TransactionMeta{
			PreTokenBalances:  pre,
			PostTokenBalances: post,
		},
	}
}

func TestParseTokenTransfers(t *testing.T) {
	self := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	parse := func(tx *rpc.GetTransactionResult) *HistoryResult {
		result := &HistoryResult{TokenTransfers: make([]TransferEvent, 0)}
		var mu sync.Mutex
		parseTokenTransfers(tx, self, time.Now(), solana.Signature{}, result, &mu)
		return result
	}

	t.Run("received", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "100")},
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "250")},
		))
		require.Len(t, result.TokenTransfers, 1)
		assert.Equal(t, "TokenTransferReceived", result.TokenTransfers[0].Type)
		assert.Equal(t, uint64(150), result.TokenTransfers[0].Amount)
		assert.Equal(t, mint, result.TokenTransfers[0].Mint)
	})

	t.Run("sent", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "300")},
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "120")},
		))
		require.Len(t, result.TokenTransfers, 1)
		assert.Equal(t, "TokenTransferSent", result.TokenTransfers[0].Type)
		assert.Equal(t, uint64(180), result.TokenTransfers[0].Amount)
	})

	t.Run("missing pre balance means zero", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{},
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "40")},
		))
		require.Len(t, result.TokenTransfers, 1)
		assert.Equal(t, "TokenTransferReceived", result.TokenTransfers[0].Type)
		assert.Equal(t, uint64(40), result.TokenTransfers[0].Amount)
	})

	t.Run("malformed pre amount is skipped", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "not-a-number")},
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "250")},
		))
		assert.Empty(t, result.TokenTransfers)
	})

	t.Run("malformed post amount is skipped", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "100")},
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "25x")},
		))
		assert.Empty(t, result.TokenTransfers)
	})

	t.Run("other owner is ignored", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{tokenBalance(1, other, mint, "100")},
			[]rpc.TokenBalance{tokenBalance(1, other, mint, "250")},
		))
		assert.Empty(t, result.TokenTransfers)
	})

	t.Run("unchanged balance is ignored", func(t *testing.T) {
		result := parse(tokenTransferTx(
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "100")},
			[]rpc.TokenBalance{tokenBalance(1, self, mint, "100")},
		))
		assert.Empty(t, result.TokenTransfers)
	})
}

func TestParseRawTokenAmount(t *testing.T) {
	v, err := parseRawTokenAmount("")
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = parseRawTokenAmount("12345")
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), v)

	_, err = parseRawTokenAmount("-1")
	assert.Error(t, err)
}
