package provider

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
)

// Provider kinds accepted by Options.Kind.
const (
	KindAuto     = "auto"
	KindRPC      = "rpc"
	KindKeystore = "keystore"
)

// Options configure discovery.
type Options struct {
	Kind         string
	RPCURL       string // read endpoint, also used by the keystore provider
	WalletRPCURL string // external signer endpoint for the rpc provider
	Timeout      time.Duration
	Wallets      *wallet.Manager
	Authorize    Authorizer
	PollInterval time.Duration
	Logger       logging.Logger
}

// Discover locates a wallet provider within opts.Timeout. It never returns
// an error; ok is false when nothing usable answered in time.
func Discover(ctx context.Context, opts Options) (p Provider, ok bool) {
	log := logging.OrNop(opts.Logger)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DetectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var detectors []func(context.Context, Options) (Provider, error)
	switch opts.Kind {
	case KindRPC:
		detectors = append(detectors, detectRPC)
	case KindKeystore:
		detectors = append(detectors, detectKeystore)
	default:
		if opts.WalletRPCURL != "" {
			detectors = append(detectors, detectRPC)
		}
		detectors = append(detectors, detectKeystore)
	}

	for _, detect := range detectors {
		found, err := detect(ctx, opts)
		if err != nil {
			log.Warn("provider detection failed", "kind", opts.Kind, "error", err)
			continue
		}
		log.Info("provider detected", "id", found.ID())
		return found, true
	}
	return nil, false
}

func detectRPC(ctx context.Context, opts Options) (Provider, error) {
	if opts.WalletRPCURL == "" {
		return nil, ErrNoProvider
	}
	if _, err := chain.NewEVMClient(opts.WalletRPCURL).ChainID(ctx); err != nil {
		return nil, err
	}
	p := NewRPC(opts.WalletRPCURL, opts.RPCURL)
	if opts.PollInterval > 0 {
		p.WithPollInterval(opts.PollInterval)
	}
	return p, nil
}

func detectKeystore(ctx context.Context, opts Options) (Provider, error) {
	if opts.RPCURL == "" || opts.Wallets == nil {
		return nil, ErrNoProvider
	}
	client := chain.NewEVMClient(opts.RPCURL)
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	k := NewKeystore(client, opts.Wallets, chainID, opts.Authorize, opts.Logger)
	if opts.PollInterval > 0 {
		k.WithPollInterval(opts.PollInterval)
	}
	return k, nil
}
