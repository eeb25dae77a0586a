package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
)

// RPC is a provider backed by an external signer endpoint.
type RPC struct {
	wallet *chain.EVMClient
	reads  *chain.EVMClient
	poll   time.Duration
}

// NewRPC creates an RPC provider. Reads go to readURL, or to the wallet
// endpoint when readURL is empty.
func NewRPC(walletURL, readURL string) *RPC {
	w := chain.NewEVMClient(walletURL)
	r := w
	if readURL != "" && readURL != walletURL {
		r = chain.NewEVMClient(readURL)
	}
	return &RPC{wallet: w, reads: r, poll: config.ReceiptPollInterval}
}

// WithPollInterval overrides the receipt polling interval.
func (p *RPC) WithPollInterval(d time.Duration) *RPC {
	p.poll = d
	return p
}

func (p *RPC) ID() string { return "rpc:" + p.wallet.URL() }

func (p *RPC) RequestAccounts(ctx context.Context) ([]string, error) {
	accounts, err := p.wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, mapRejection(err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return accounts, nil
}

func (p *RPC) Call(ctx context.Context, to string, data []byte) ([]byte, error) {
	return p.reads.CallContract(ctx, chain.TxRequest{To: to, Data: chain.EncodeHex(data)})
}

func (p *RPC) Send(ctx context.Context, from, to string, data []byte) (string, error) {
	hash, err := p.wallet.SendTransaction(ctx, chain.TxRequest{
		From: from,
		To:   to,
		Data: chain.EncodeHex(data),
	})
	if err != nil {
		return "", fmt.Errorf("eth_sendTransaction: %w", mapRejection(err))
	}
	return hash, nil
}

func (p *RPC) WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error) {
	return p.reads.WaitForReceipt(ctx, hash, p.poll)
}
