package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/Mohsinsiddi/tokendesk/internal/activity"
	"github.com/Mohsinsiddi/tokendesk/internal/app"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/tokendesk/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir    string
	cfg       *config.Config
	verbose   bool
	assumeYes bool
	logger    logging.Logger = logging.Nop{}
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "tokendesk",
	Short: "Connect a wallet and drive one ERC-20 token",
	Long: `tokendesk binds one token contract to one wallet.

  Connect an account, read name, decimals, supply and balance, and run
  transfer, mint, burn, stake, unstake, approve, multisend, pause and
  unpause against the configured token.

Wallet provider is found automatically: an external signer at wallet_rpc_url
when set, otherwise local keychain wallets signing against rpc_url.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			logger = logging.Structured{}
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	// TOKENDESK_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("TOKENDESK_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.tokendesk)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "structured diagnostic logs on stderr")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(
		infoCmd,
		balanceCmd,
		connectCmd,
		deskCmd,
		walletCmd,
		historyCmd,
		configCmd,
	)
	rootCmd.AddCommand(actionCommands()...)
}

// --- shared wiring ---

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyStore(wallet.DefaultKeystore(cfg.Dir())),
	)
}

// accessPrompt approves keystore account access. While interactive it asks on
// the terminal; once detached (inside the desk) it only repeats an earlier yes.
type accessPrompt struct {
	detached atomic.Bool
	approved atomic.Bool
}

func (p *accessPrompt) authorize(_ context.Context, accounts []string) (bool, error) {
	if assumeYes || p.approved.Load() {
		return true, nil
	}
	if p.detached.Load() {
		return false, nil
	}
	ok := ui.Confirm(fmt.Sprintf("Allow tokendesk to use %s?", strings.Join(accounts, ", ")))
	p.approved.Store(ok)
	return ok, nil
}

type deskHandle struct {
	*app.Desk
	prompt  *accessPrompt
	journal *activity.Journal
}

func (h *deskHandle) Close() {
	if h.journal != nil {
		h.journal.Close() //nolint:errcheck
	}
}

// openDesk wires the application. notify may be nil. A read-only desk takes
// any descriptor carrying the token reads and refuses to dispatch.
func openDesk(ctx context.Context, notify dispatch.Notifier, readOnly bool) (*deskHandle, error) {
	h := &deskHandle{prompt: &accessPrompt{}}

	opts := app.Options{
		Config:    cfg,
		Wallets:   newWalletManager(),
		Authorize: h.prompt.authorize,
		Notifier:  notify,
		Logger:    logger,
		ReadOnly:  readOnly,
	}
	j, err := activity.Open(cfg.HistoryPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Warn(fmt.Sprintf("activity history disabled: %v", err)))
	} else {
		h.journal = j
		opts.Journal = j
	}

	d, err := app.Open(ctx, opts)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.Desk = d
	if !d.HasProvider() {
		fmt.Fprintln(os.Stderr, ui.Warn("No wallet provider detected."))
		fmt.Fprintln(os.Stderr, ui.Hint("Start a node at "+cfg.RPCURL+" or set wallet_rpc_url: tokendesk config set wallet_rpc_url <url>"))
	}
	return h, nil
}
