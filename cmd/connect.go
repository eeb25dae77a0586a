package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/spf13/cobra"
)

var connectForget bool

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Request account access from the wallet",
	Long: `Ask the wallet provider for account access and show the connected
account with its balance. With auth.reuse_grant=true an earlier grant is
reused without asking again; --forget drops cached grants first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if connectForget {
			if err := wallet.NewGrantCache(cfg.GrantsPath()).ClearAll(); err != nil {
				return err
			}
			fmt.Println(ui.Meta("Cached account grants cleared."))
		}

		h, err := openDesk(ctx, nil, true)
		if err != nil {
			return err
		}
		defer h.Close()
		if !h.HasProvider() {
			return nil
		}

		if err := h.Load(ctx); err != nil {
			fmt.Println(ui.Warn(err.Error()))
		}
		s, err := h.Connect(ctx)
		switch {
		case errors.Is(err, session.ErrUserRejected):
			fmt.Println(ui.Warn("Account access was rejected."))
			fmt.Println(ui.Hint("Run tokendesk connect again to retry."))
			return nil
		case err != nil:
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Connected %s", ui.Addr(s.Active()))))
		if len(s.Accounts) > 1 {
			fmt.Println(ui.Meta(fmt.Sprintf("%d accounts authorized, using the first", len(s.Accounts))))
		}
		fmt.Println(factsBlock(h.Facts(), h.ProviderID()))
		return nil
	},
}

func init() {
	connectCmd.Flags().BoolVar(&connectForget, "forget", false, "clear cached account grants before connecting")
}
