package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

// actionDef describes one write command.
type actionDef struct {
	action  dispatch.Action
	use     string
	short   string
	example string
	args    cobra.PositionalArgs
	input   func(args []string) dispatch.Input
}

var actionDefs = []actionDef{
	{
		action: dispatch.Transfer, use: "transfer <to> <amount>",
		short:   "Send tokens to an address",
		example: "tokendesk transfer 0xBob… 1.5 --units",
		args:    cobra.ExactArgs(2),
		input:   func(a []string) dispatch.Input { return dispatch.Input{To: a[0], Amount: a[1]} },
	},
	{
		action: dispatch.Mint, use: "mint <to> <amount>",
		short:   "Mint new tokens to an address (owner only)",
		example: "tokendesk mint 0xBob… 1000000000000000000",
		args:    cobra.ExactArgs(2),
		input:   func(a []string) dispatch.Input { return dispatch.Input{To: a[0], Amount: a[1]} },
	},
	{
		action: dispatch.Burn, use: "burn <amount>",
		short:   "Destroy tokens from the connected account",
		example: "tokendesk burn 10 --units",
		args:    cobra.ExactArgs(1),
		input:   func(a []string) dispatch.Input { return dispatch.Input{Amount: a[0]} },
	},
	{
		action: dispatch.Stake, use: "stake <amount>",
		short:   "Stake tokens",
		example: "tokendesk stake 250 --units",
		args:    cobra.ExactArgs(1),
		input:   func(a []string) dispatch.Input { return dispatch.Input{Amount: a[0]} },
	},
	{
		action: dispatch.Unstake, use: "unstake <amount>",
		short:   "Withdraw staked tokens",
		example: "tokendesk unstake 250 --units",
		args:    cobra.ExactArgs(1),
		input:   func(a []string) dispatch.Input { return dispatch.Input{Amount: a[0]} },
	},
	{
		action: dispatch.Approve, use: "approve <spender> <amount>",
		short:   "Set a spender allowance",
		example: "tokendesk approve 0xRouter… 100 --units",
		args:    cobra.ExactArgs(2),
		input:   func(a []string) dispatch.Input { return dispatch.Input{Spender: a[0], Amount: a[1]} },
	},
	{
		action: dispatch.Multisend, use: "multisend <to,to,…> <amount,amount,…>",
		short: "Transfer to several recipients, one transaction each",
		example: `tokendesk multisend 0xA…,0xB… 1,2 --units

Transfers run in list order. The first failure stops the batch; transfers
already mined are not undone.`,
		args: cobra.ExactArgs(2),
		input: func(a []string) dispatch.Input {
			return dispatch.Input{Recipients: splitCSV(a[0]), Amounts: splitCSV(a[1])}
		},
	},
	{
		action: dispatch.Pause, use: "pause",
		short:   "Pause all token transfers (owner only)",
		example: "tokendesk pause --yes",
		args:    cobra.NoArgs,
		input:   func([]string) dispatch.Input { return dispatch.Input{} },
	},
	{
		action: dispatch.Unpause, use: "unpause",
		short:   "Resume token transfers (owner only)",
		example: "tokendesk unpause --yes",
		args:    cobra.NoArgs,
		input:   func([]string) dispatch.Input { return dispatch.Input{} },
	},
}

func actionCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(actionDefs))
	for _, def := range actionDefs {
		cmds = append(cmds, newActionCmd(def))
	}
	return cmds
}

func newActionCmd(def actionDef) *cobra.Command {
	var units bool
	c := &cobra.Command{
		Use:     def.use,
		Short:   def.short,
		Example: "  " + def.example,
		Args:    def.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, def, args, units)
		},
	}
	if takesAmount(def.action) {
		c.Flags().BoolVar(&units, "units", false, "amounts are in whole tokens, scaled by 10^decimals")
	}
	return c
}

func takesAmount(a dispatch.Action) bool {
	return a != dispatch.Pause && a != dispatch.Unpause
}

func runAction(cmd *cobra.Command, def actionDef, args []string, units bool) error {
	ctx := cmd.Context()

	spin := ui.NewSpinner(fmt.Sprintf("Preparing %s…", def.action))
	notify := func(n dispatch.Notice) {
		switch n.State {
		case dispatch.Submitting:
			spin.SetMessage(fmt.Sprintf("Waiting for %s to be mined…", n.Action))
		case dispatch.Refreshing:
			spin.SetMessage("Refreshing balance…")
		}
	}

	h, err := openDesk(ctx, notify, false)
	if err != nil {
		return err
	}
	defer h.Close()
	if !h.HasProvider() {
		return nil
	}

	if err := h.Start(ctx); err != nil {
		if errors.Is(err, session.ErrUserRejected) {
			fmt.Println(ui.Warn("Account access was rejected; nothing was sent."))
			return nil
		}
		fmt.Println(ui.Warn(err.Error()))
	}

	in := def.input(args)
	if units {
		if in, err = scaleInput(in, h.Facts().Decimals); err != nil {
			return err
		}
	}

	if !assumeYes && !ui.Confirm(describe(def.action, in, h.Session().Active(), h.Facts())) {
		fmt.Println(ui.Meta("Cancelled."))
		return nil
	}

	spin.Start()
	out, err := h.Dispatch(ctx, def.action, in)
	spin.Stop()

	for _, hash := range out.TxHashes() {
		fmt.Println(ui.Meta("tx " + hash))
	}
	if err != nil {
		if len(out.Receipts) > 0 && out.Facts.Account != "" {
			fmt.Printf("  %s %s\n", ui.Meta("Balance:"), ui.Val(displayAmount(out.Facts.Balance, out.Facts.Decimals)))
		}
		return err
	}
	fmt.Println(ui.Success(fmt.Sprintf("%s confirmed", def.action)))
	if out.RefreshErr != nil {
		fmt.Println(ui.Warn(out.RefreshErr.Error() + "; the balance shown may be out of date"))
	}
	if out.Facts.Account != "" {
		fmt.Printf("  %s %s\n", ui.Meta("Balance:"), ui.Val(displayAmount(out.Facts.Balance, out.Facts.Decimals)))
	}
	return nil
}

// scaleInput converts whole-token amounts into base units.
func scaleInput(in dispatch.Input, decimals uint8) (dispatch.Input, error) {
	var err error
	if in.Amount != "" {
		if in.Amount, err = token.ToBaseUnits(in.Amount, decimals); err != nil {
			return in, err
		}
	}
	for i, a := range in.Amounts {
		if in.Amounts[i], err = token.ToBaseUnits(a, decimals); err != nil {
			return in, err
		}
	}
	return in, nil
}

func describe(a dispatch.Action, in dispatch.Input, from string, f token.Facts) string {
	amt := func(s string) string { return displayAmount(s, f.Decimals) }
	switch a {
	case dispatch.Transfer:
		return fmt.Sprintf("Transfer %s from %s to %s?", amt(in.Amount), from, in.To)
	case dispatch.Mint:
		return fmt.Sprintf("Mint %s to %s?", amt(in.Amount), in.To)
	case dispatch.Approve:
		return fmt.Sprintf("Approve %s to spend %s?", in.Spender, amt(in.Amount))
	case dispatch.Multisend:
		return fmt.Sprintf("Send %d transfers from %s?", len(in.Recipients), from)
	case dispatch.Pause, dispatch.Unpause:
		return fmt.Sprintf("%s %s?", strings.ToUpper(string(a[:1]))+string(a[1:]), orDash(f.Name))
	default:
		return fmt.Sprintf("%s %s?", strings.ToUpper(string(a[:1]))+string(a[1:]), amt(in.Amount))
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
