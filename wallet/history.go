package wallet

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransferEvent represents one transfer touching the account.
type TransferEvent struct {
	Signature solana.Signature `json:"signature"`
	Timestamp time.Time        `json:"timestamp"`
	Type      string           `json:"type"`
	Amount    uint64           `json:"amount,omitempty"`
	Sender    solana.PublicKey `json:"sender,omitempty"`
	Recipient solana.PublicKey `json:"recipient,omitempty"`
	Mint      solana.PublicKey `json:"mint,omitempty"`
}

// HistoryResult holds the categorized history.
type HistoryResult struct {
	SolTransfers   []TransferEvent `json:"solTransfers"`
	TokenTransfers []TransferEvent `json:"tokenTransfers"`
}

// History fetches up to limit recent transactions of the account and
// classifies the SOL and SPL token transfers found in them.
func (a *Account) History(ctx context.Context, limit int) (*HistoryResult, error) {
	if err := a.guardOnline(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000 // maximum allowed by the RPC
	}

	result := &HistoryResult{
		SolTransfers:   make([]TransferEvent, 0),
		TokenTransfers: make([]TransferEvent, 0),
	}

	signatures, err := a.rpc.GetSignaturesForAddressWithOpts(
		ctx,
		a.pub,
		&rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction signatures: %w", err)
	}

	if len(signatures) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	// Process transactions concurrently in batches to stay under the RPC
	// node's request limits.
	batchSize := 10
	for i := 0; i < len(signatures); i += batchSize {
		end := i + batchSize
		if end > len(signatures) {
			end = len(signatures)
		}

		for j := i; j < end; j++ {
			wg.Add(1)
			go func(sigInfo *rpc.TransactionSignature) {
				defer wg.Done()

				version := uint64(0)
				tx, err := a.rpc.GetTransaction(
					ctx,
					sigInfo.Signature,
					&rpc.GetTransactionOpts{
						Encoding:                       solana.EncodingBase64,
						Commitment:                     rpc.CommitmentConfirmed,
						MaxSupportedTransactionVersion: &version,
					},
				)
				if err != nil {
					// Skip transactions that cannot be fetched, the rest of
					// the history is still useful.
					return
				}

				parseTransactionForHistory(tx, a.pub, result, &mu)
			}(signatures[j])
		}

		wg.Wait()
	}

	return result, nil
}

// parseTransactionForHistory parses transaction data to build history
func parseTransactionForHistory(tx *rpc.GetTransactionResult, self solana.PublicKey, result *HistoryResult, mu *sync.Mutex) {
	if tx == nil || tx.Meta == nil {
		return
	}

	var timestamp time.Time
	if tx.BlockTime != nil {
		timestamp = tx.BlockTime.Time()
	} else {
		timestamp = time.Now()
	}

	var signature solana.Signature
	if parsed, err := tx.Transaction.GetTransaction(); err == nil && len(parsed.Signatures) > 0 {
		signature = parsed.Signatures[0]
	}

	if tx.Transaction != nil {
		parseSolTransfers(tx, self, timestamp, signature, result, mu)
	}
	parseTokenTransfers(tx, self, timestamp, signature, result, mu)
}

// parseSolTransfers extracts SOL transfers from transaction instructions
func parseSolTransfers(tx *rpc.GetTransactionResult, self solana.PublicKey, timestamp time.Time, signature solana.Signature, result *HistoryResult, mu *sync.Mutex) {
	parsed, err := tx.Transaction.GetTransaction()
	if err != nil {
		return
	}

	// Iterate through instructions looking for System Program transfers
	for _, instr := range parsed.Message.Instructions {
		programIdx := instr.ProgramIDIndex
		if int(programIdx) >= len(parsed.Message.AccountKeys) {
			continue
		}
		programID := parsed.Message.AccountKeys[programIdx]
		if programID != solana.SystemProgramID {
			continue
		}

		if len(instr.Data) < 4 {
			continue
		}

		// System Program instructions start with a u32 type tag, 2 is
		// Transfer with a u64 lamports amount behind it.
		decoder := bin.NewBorshDecoder(instr.Data)
		var instrType uint32
		if err := decoder.Decode(&instrType); err != nil {
			continue
		}
		if instrType != 2 {
			continue
		}

		var amount uint64
		if err := decoder.Decode(&amount); err != nil {
			continue
		}

		if len(instr.Accounts) < 2 {
			continue
		}
		fromIdx := instr.Accounts[0]
		toIdx := instr.Accounts[1]
		if int(fromIdx) >= len(parsed.Message.AccountKeys) || int(toIdx) >= len(parsed.Message.AccountKeys) {
			continue
		}
		from := parsed.Message.AccountKeys[fromIdx]
		to := parsed.Message.AccountKeys[toIdx]

		// Only include if the account is involved
		if from != self && to != self {
			continue
		}

		eventType := "SOLTransferSent"
		if to == self {
			eventType = "SOLTransferReceived"
		}

		event := TransferEvent{
			Signature: signature,
			Timestamp: timestamp,
			Type:      eventType,
			Amount:    amount,
			Sender:    from,
			Recipient: to,
		}

		mu.Lock()
		result.SolTransfers = append(result.SolTransfers, event)
		mu.Unlock()
	}
}

// parseTokenTransfers extracts SPL token transfers from the pre/post token
// balance deltas of the transaction.
func parseTokenTransfers(tx *rpc.GetTransactionResult, self solana.PublicKey, timestamp time.Time, signature solana.Signature, result *HistoryResult, mu *sync.Mutex) {
	if tx.Transaction == nil || tx.Meta == nil {
		return
	}
	if tx.Meta.PreTokenBalances == nil || tx.Meta.PostTokenBalances == nil {
		return
	}

	for _, postBalance := range tx.Meta.PostTokenBalances {
		// Only balances owned by the account are interesting.
		if postBalance.Owner == nil || *postBalance.Owner != self {
			continue
		}

		postAmount, err := parseRawTokenAmount(postBalance.UiTokenAmount.Amount)
		if err != nil {
			continue
		}

		var preAmount uint64
		for _, preBalance := range tx.Meta.PreTokenBalances {
			if preBalance.AccountIndex == postBalance.AccountIndex {
				preAmount, err = parseRawTokenAmount(preBalance.UiTokenAmount.Amount)
				break
			}
		}
		if err != nil {
			continue
		}

		if postAmount == preAmount {
			continue
		}

		var amount uint64
		var eventType string
		if postAmount > preAmount {
			amount = postAmount - preAmount
			eventType = "TokenTransferReceived"
		} else {
			amount = preAmount - postAmount
			eventType = "TokenTransferSent"
		}

		event := TransferEvent{
			Signature: signature,
			Timestamp: timestamp,
			Type:      eventType,
			Amount:    amount,
			Mint:      postBalance.Mint,
		}

		mu.Lock()
		result.TokenTransfers = append(result.TokenTransfers, event)
		mu.Unlock()
	}
}

// parseRawTokenAmount reads the raw base-unit amount string of a token
// balance. An absent amount means zero.
func parseRawTokenAmount(amount string) (uint64, error) {
	if amount == "" {
		return 0, nil
	}
	return strconv.ParseUint(amount, 10, 64)
}
