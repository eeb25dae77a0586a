// Package contract binds a contract interface descriptor to a wallet provider
// and turns method names plus string arguments into reads and mined writes.
package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrCallFailed wraps any failure of the remote side: transport, provider
	// refusal or undecodable return data.
	ErrCallFailed = errors.New("contract call failed")
	// ErrReverted is returned when a write was mined with status 0.
	ErrReverted = chain.ErrReverted
	// ErrInvalidAddress is returned by Bind for a malformed contract address.
	ErrInvalidAddress = errors.New("invalid contract address")
	// ErrUnknownMethod is returned for a method the descriptor does not declare.
	ErrUnknownMethod = errors.New("unknown contract method")
)

// Receipt is the mined result of a write.
type Receipt = chain.TxReceipt

// Backend is the provider capability a handle needs.
type Backend interface {
	ID() string
	Call(ctx context.Context, to string, data []byte) ([]byte, error)
	Send(ctx context.Context, from, to string, data []byte) (string, error)
	WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error)
}

// Handle is a contract interface bound to one address and one provider.
// Handles are immutable; a provider change means a new Bind.
type Handle struct {
	backend        Backend
	address        common.Address
	desc           *Descriptor
	confirmTimeout time.Duration
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithConfirmTimeout bounds how long Send waits for the receipt.
func WithConfirmTimeout(d time.Duration) HandleOption {
	return func(h *Handle) {
		if d > 0 {
			h.confirmTimeout = d
		}
	}
}

// Bind constructs a handle. It performs no network I/O.
func Bind(b Backend, address string, desc *Descriptor, opts ...HandleOption) (*Handle, error) {
	if b == nil {
		return nil, errors.New("bind: nil provider")
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidDescriptor)
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	h := &Handle{
		backend:        b,
		address:        common.HexToAddress(address),
		desc:           desc,
		confirmTimeout: config.TxConfirmTimeout,
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Address returns the checksummed contract address.
func (h *Handle) Address() string { return h.address.Hex() }

// ProviderID identifies the provider the handle is scoped to.
func (h *Handle) ProviderID() string { return h.backend.ID() }

// Descriptor returns the bound interface.
func (h *Handle) Descriptor() *Descriptor { return h.desc }

// Call runs a read-only method and returns its outputs as strings; integers
// are base-10 and addresses checksummed.
func (h *Handle) Call(ctx context.Context, method string, args ...string) ([]string, error) {
	m, ok := h.desc.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if !m.IsConstant() {
		return nil, fmt.Errorf("%s is not a read function (stateMutability: %s)", method, m.StateMutability)
	}

	data, err := h.pack(method, args)
	if err != nil {
		return nil, err
	}

	out, err := h.backend.Call(ctx, h.address.Hex(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, method, err)
	}

	values, err := h.desc.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrCallFailed, method, err)
	}
	return formatValues(values), nil
}

// Send submits a state-changing method from the given account and waits for
// the receipt. A reverted receipt is returned together with ErrReverted.
func (h *Handle) Send(ctx context.Context, from, method string, args ...string) (*Receipt, error) {
	m, ok := h.desc.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if m.IsConstant() {
		return nil, fmt.Errorf("%s is a read function; use Call", method)
	}

	data, err := h.pack(method, args)
	if err != nil {
		return nil, err
	}

	hash, err := h.backend.Send(ctx, from, h.address.Hex(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.confirmTimeout)
	defer cancel()
	receipt, err := h.backend.WaitMined(waitCtx, hash)
	if err != nil {
		if errors.Is(err, chain.ErrReverted) {
			return receipt, fmt.Errorf("%s: %w", method, err)
		}
		return nil, fmt.Errorf("%w: waiting for %s (%s): %w", ErrCallFailed, method, hash, err)
	}
	return receipt, nil
}

func (h *Handle) pack(method string, args []string) ([]byte, error) {
	m := h.desc.ABI.Methods[method]
	if len(args) != len(m.Inputs) {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", method, len(m.Inputs), len(args))
	}
	values := make([]any, len(args))
	for i, in := range m.Inputs {
		v, err := convertArg(in.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%s argument %d (%s): %w", method, i, in.Type.String(), err)
		}
		values[i] = v
	}
	data, err := h.desc.ABI.Pack(method, values...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	return data, nil
}
