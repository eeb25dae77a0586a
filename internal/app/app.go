// Package app wires provider discovery, the session, the contract binding,
// token view state and the dispatcher into one desk.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"github.com/Mohsinsiddi/tokendesk/internal/provider"
	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
)

// ErrReadOnly is returned by Dispatch on a desk opened with ReadOnly.
var ErrReadOnly = errors.New("desk opened read-only")

// Options configure Open.
type Options struct {
	Config    *config.Config
	Wallets   *wallet.Manager
	Authorize provider.Authorizer
	Notifier  dispatch.Notifier
	Journal   dispatch.Journal
	Logger    logging.Logger

	// Provider skips discovery when set.
	Provider provider.Provider

	// ReadOnly accepts descriptors that only carry the token reads; every
	// dispatch then fails with ErrReadOnly.
	ReadOnly bool
}

// Desk is the running application state.
type Desk struct {
	ctx        context.Context
	log        logging.Logger
	provider   provider.Provider
	desc       *contract.Descriptor
	readOnly   bool
	handle     *contract.Handle
	session    *session.Manager
	view       *token.View
	dispatcher *dispatch.Dispatcher
}

// Open builds a desk. Descriptor and address problems are returned as errors;
// a missing provider is not an error and leaves the desk read-less until one
// appears on a later run.
func Open(ctx context.Context, opts Options) (*Desk, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	log := logging.OrNop(opts.Logger)

	desc, err := loadDescriptor(cfg)
	if err != nil {
		return nil, err
	}
	required := token.ReadMethods()
	if !opts.ReadOnly {
		required = append(required, dispatch.Methods()...)
	}
	if err := desc.RequireMethods(required...); err != nil {
		return nil, err
	}

	p := opts.Provider
	if p == nil {
		var ok bool
		p, ok = provider.Discover(ctx, provider.Options{
			Kind:         cfg.Provider,
			RPCURL:       cfg.RPCURL,
			WalletRPCURL: cfg.WalletRPCURL,
			Timeout:      cfg.DetectTimeout(),
			Wallets:      opts.Wallets,
			Authorize:    opts.Authorize,
			Logger:       log,
		})
		if !ok {
			log.Warn("no wallet provider detected", "kind", cfg.Provider)
		}
	}

	d := &Desk{ctx: ctx, log: log, provider: p, desc: desc, readOnly: opts.ReadOnly, view: token.NewView(log)}

	sessOpts := []session.Option{
		session.WithLogger(log),
		session.WithGrantStore(wallet.NewGrantCache(cfg.GrantsPath()), cfg.Auth.ReuseGrant),
	}
	var binding dispatch.Binding
	if p != nil {
		d.handle, err = contract.Bind(p, cfg.Token.Address, desc, contract.WithConfirmTimeout(cfg.ConfirmTimeout()))
		if err != nil {
			return nil, err
		}
		binding = d.handle
		d.session = session.NewManager(p, sessOpts...)
	} else {
		d.session = session.NewManager(nil, sessOpts...)
	}

	d.dispatcher = dispatch.New(binding, d.session, d.view,
		dispatch.WithNotifier(opts.Notifier),
		dispatch.WithJournal(opts.Journal),
		dispatch.WithLogger(log),
	)
	d.session.OnChange(d.onSessionChange)
	return d, nil
}

func loadDescriptor(cfg *config.Config) (*contract.Descriptor, error) {
	if cfg.Token.ABIFile != "" {
		return contract.LoadDescriptorFile(cfg.Token.ABIFile)
	}
	return contract.Builtin(cfg.Token.Descriptor)
}

func (d *Desk) onSessionChange(_, next session.Session) {
	if d.handle == nil || next.Empty() {
		return
	}
	if _, err := d.view.Refresh(d.ctx, d.handle, next.Active()); err != nil {
		d.log.Warn("refresh after session change", "account", next.Active(), "error", err)
	}
}

// Start loads token metadata and then asks for account access, the way the
// page did on load. Errors from both steps are joined.
func (d *Desk) Start(ctx context.Context) error {
	if d.provider == nil {
		return provider.ErrNoProvider
	}
	lerr := d.Load(ctx)
	_, cerr := d.Connect(ctx)
	return errors.Join(lerr, cerr)
}

// Load refreshes metadata without an account.
func (d *Desk) Load(ctx context.Context) error {
	if d.handle == nil {
		return provider.ErrNoProvider
	}
	_, err := d.view.Refresh(ctx, d.handle, "")
	return err
}

// Connect requests account access. A changed session triggers a full refresh
// before Connect returns.
func (d *Desk) Connect(ctx context.Context) (session.Session, error) {
	s, err := d.session.RequestAccess(ctx)
	if err != nil {
		return s, fmt.Errorf("connect: %w", err)
	}
	return s, nil
}

// RefreshAll re-reads metadata and, when connected, the balance.
func (d *Desk) RefreshAll(ctx context.Context) (token.Facts, error) {
	if d.handle == nil {
		return d.view.Snapshot(), provider.ErrNoProvider
	}
	return d.view.Refresh(ctx, d.handle, d.session.Current().Active())
}

// Dispatch runs one action.
func (d *Desk) Dispatch(ctx context.Context, a dispatch.Action, in dispatch.Input) (dispatch.Outcome, error) {
	if d.readOnly {
		return dispatch.Outcome{Action: a}, ErrReadOnly
	}
	return d.dispatcher.Dispatch(ctx, a, in)
}

// Call runs an arbitrary read on the bound contract.
func (d *Desk) Call(ctx context.Context, method string, args ...string) ([]string, error) {
	if d.handle == nil {
		return nil, provider.ErrNoProvider
	}
	return d.handle.Call(ctx, method, args...)
}

func (d *Desk) Facts() token.Facts                           { return d.view.Snapshot() }
func (d *Desk) Session() session.Session                     { return d.session.Current() }
func (d *Desk) HasProvider() bool                            { return d.provider != nil }
func (d *Desk) ConnectPending() bool                         { return d.session.Pending() }
func (d *Desk) ActionState(a dispatch.Action) dispatch.State { return d.dispatcher.State(a) }
func (d *Desk) Handle() *contract.Handle                     { return d.handle }
func (d *Desk) Descriptor() *contract.Descriptor             { return d.desc }

// ProviderID identifies the active provider, or "" when none was found.
func (d *Desk) ProviderID() string {
	if d.provider == nil {
		return ""
	}
	return d.provider.ID()
}
