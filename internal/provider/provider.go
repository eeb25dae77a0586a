// Package provider locates and drives the wallet that authorizes accounts,
// answers contract reads and submits writes.
//
// Two provider kinds exist. An RPC provider talks to an external signer
// endpoint that speaks eth_requestAccounts / eth_sendTransaction (a wallet
// daemon, or a dev node with unlocked accounts). A keystore provider signs
// locally with wallets held in the OS keychain and asks the user to approve
// account access through an Authorizer.
package provider

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
)

var (
	// ErrNoProvider means discovery found no usable wallet.
	ErrNoProvider = errors.New("no wallet provider detected")
	// ErrUserRejected means the human declined an authorization or signing prompt.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrNoAccounts means the provider has no account it could authorize.
	ErrNoAccounts = errors.New("no accounts available")
	// ErrUnknownAccount means a write named a sender the provider does not control.
	ErrUnknownAccount = errors.New("account not managed by this provider")
)

// Provider is the wallet capability.
type Provider interface {
	// ID identifies the provider instance; handles and grants are scoped to it.
	ID() string
	// RequestAccounts asks for account access. Index 0 is the active account.
	RequestAccounts(ctx context.Context) ([]string, error)
	// Call runs a read-only contract call.
	Call(ctx context.Context, to string, data []byte) ([]byte, error)
	// Send submits a state-changing transaction from one authorized account
	// and returns its hash.
	Send(ctx context.Context, from, to string, data []byte) (string, error)
	// WaitMined blocks until hash is mined. A reverted receipt is returned
	// with an error wrapping chain.ErrReverted.
	WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error)
}

// mapRejection converts an EIP-1193 4001 error into ErrUserRejected.
func mapRejection(err error) error {
	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == chain.CodeUserRejected {
		return errors.Join(ErrUserRejected, err)
	}
	return err
}
