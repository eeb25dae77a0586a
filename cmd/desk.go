package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var deskUnits bool

var deskCmd = &cobra.Command{
	Use:   "desk",
	Short: "Interactive token desk",
	Long: `Full-screen desk showing the token, the connected account and every
action. Metadata loads and account access is requested on start; press c to
connect again after a rejection.

Keys: t transfer · m mint · b burn · s stake · u unstake · a approve
      x multisend · p pause · r unpause · c connect · q quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		notices := make(chan dispatch.Notice, 16)
		notify := func(n dispatch.Notice) {
			select {
			case notices <- n:
			default:
				logger.Warn("desk notice dropped", "action", n.Action, "state", n.State.String())
			}
		}

		h, err := openDesk(ctx, notify, false)
		if err != nil {
			return err
		}
		defer h.Close()

		fmt.Println(ui.Banner())
		if h.HasProvider() {
			if err := h.Start(ctx); err != nil {
				fmt.Println(ui.Warn(err.Error()))
			}
		}
		// Keystore prompts cannot share the terminal with the desk.
		h.prompt.detached.Store(true)

		units := deskUnits || cfg.DisplayUnits
		return ui.RunDesk(ctx, h, notices, units)
	},
}

func init() {
	deskCmd.Flags().BoolVar(&deskUnits, "units", false, "type and show amounts in whole tokens")
}
