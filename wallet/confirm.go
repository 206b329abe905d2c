package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// WaitForConfirmation subscribes on the websocket endpoint and blocks until
// the signature reaches confirmed commitment, the transaction fails on
// chain, or the context is done.
func (a *Account) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	if err := a.guardOnline(); err != nil {
		return err
	}

	wsClient, err := ws.Connect(ctx, a.cfg.wsEndpoint())
	if err != nil {
		return fmt.Errorf("failed to connect to websocket endpoint: %w", err)
	}
	defer wsClient.Close()

	sub, err := wsClient.SignatureSubscribe(sig, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to signature: %w", err)
	}
	defer sub.Unsubscribe()

	res, err := sub.Recv(ctx)
	if err != nil {
		return fmt.Errorf("failed to receive signature notification: %w", err)
	}
	if res.Value.Err != nil {
		return fmt.Errorf("transaction %s failed on chain: %v", sig, res.Value.Err)
	}
	return nil
}
