package provider

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Authorizer asks the human whether accounts may be exposed. A nil
// Authorizer grants every request.
type Authorizer func(ctx context.Context, accounts []string) (bool, error)

// Keystore is a provider that signs locally with keychain-held wallets.
type Keystore struct {
	client    *chain.EVMClient
	wallets   *wallet.Manager
	chainID   *big.Int
	authorize Authorizer
	poll      time.Duration
	log       logging.Logger
}

// NewKeystore creates a keystore provider on top of client.
func NewKeystore(client *chain.EVMClient, wallets *wallet.Manager, chainID *big.Int, authorize Authorizer, log logging.Logger) *Keystore {
	return &Keystore{
		client:    client,
		wallets:   wallets,
		chainID:   chainID,
		authorize: authorize,
		poll:      config.ReceiptPollInterval,
		log:       logging.OrNop(log),
	}
}

// WithPollInterval overrides the receipt polling interval.
func (k *Keystore) WithPollInterval(d time.Duration) *Keystore {
	k.poll = d
	return k
}

func (k *Keystore) ID() string {
	return fmt.Sprintf("keystore:%s:%s", k.chainID, k.client.URL())
}

func (k *Keystore) RequestAccounts(ctx context.Context) ([]string, error) {
	signing := k.wallets.Signing()
	if len(signing) == 0 {
		return nil, fmt.Errorf("%w: add a signing wallet with `tokendesk wallet add <name> --key <hex>`", ErrNoAccounts)
	}
	accounts := make([]string, len(signing))
	for i, w := range signing {
		accounts[i] = w.Address
	}
	if k.authorize != nil {
		ok, err := k.authorize(ctx, accounts)
		if err != nil {
			return nil, fmt.Errorf("authorization prompt: %w", err)
		}
		if !ok {
			return nil, ErrUserRejected
		}
	}
	return accounts, nil
}

func (k *Keystore) Call(ctx context.Context, to string, data []byte) ([]byte, error) {
	return k.client.CallContract(ctx, chain.TxRequest{To: to, Data: chain.EncodeHex(data)})
}

// Send builds an EIP-1559 transaction, signs it with the sender's key and
// broadcasts it.
func (k *Keystore) Send(ctx context.Context, from, to string, data []byte) (string, error) {
	w, err := k.wallets.ByAddress(from)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, from)
	}

	req := chain.TxRequest{From: w.Address, To: to, Data: chain.EncodeHex(data)}
	gas, err := k.client.EstimateGas(ctx, req)
	if err != nil {
		gas = gasFallback(data)
		k.log.Warn("gas estimate failed, using fallback", "gas", gas, "error", err)
	}

	gasPrice, err := k.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := k.client.PendingNonce(ctx, w.Address)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	toAddr := common.HexToAddress(to)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   k.chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &toAddr,
		Value:     big.NewInt(0),
		Data:      data,
	})

	raw, err := wallet.NewSigner(w, k.wallets.Keys()).SignTx(tx, k.chainID)
	if err != nil {
		return "", err
	}

	hash, err := k.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	k.log.Info("transaction broadcast", "hash", hash, "from", w.Address, "nonce", nonce)
	return hash, nil
}

func (k *Keystore) WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error) {
	return k.client.WaitForReceipt(ctx, hash, k.poll)
}

var (
	selTransfer = []byte{0xa9, 0x05, 0x9c, 0xbb}
	selApprove  = []byte{0x09, 0x5e, 0xa7, 0xb3}
	selBurn     = []byte{0x42, 0x96, 0x6c, 0x68}
	selMint     = []byte{0x40, 0xc1, 0x0f, 0x19}
)

// gasFallback picks a gas limit from the calldata selector when the node
// cannot estimate.
func gasFallback(data []byte) uint64 {
	if len(data) < 4 {
		return config.GasLimitContractCall
	}
	sel := data[:4]
	switch {
	case bytes.Equal(sel, selTransfer), bytes.Equal(sel, selApprove), bytes.Equal(sel, selBurn):
		return config.GasLimitERC20Transfer
	case bytes.Equal(sel, selMint):
		return config.GasLimitERC20Mint
	default:
		return config.GasLimitContractCall
	}
}
