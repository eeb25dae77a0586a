package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check token balance",
	Long: `Show the token balance of an address, or of the connected account when
no address is given (this requests account access).

Examples:
  tokendesk balance
  tokendesk balance 0x3Bc99db296a6317A4DDC3a9B31d315bb261d62bB`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		h, err := openDesk(ctx, nil, true)
		if err != nil {
			return err
		}
		defer h.Close()
		if !h.HasProvider() {
			return nil
		}

		if len(args) == 1 {
			if err := h.Load(ctx); err != nil {
				fmt.Println(ui.Warn(err.Error()))
			}
			out, err := h.Call(ctx, "balanceOf", args[0])
			if err != nil {
				return err
			}
			f := h.Facts()
			fmt.Printf("%s  %s %s\n", ui.Addr(args[0]), ui.Val(displayAmount(out[0], f.Decimals)), ui.TokenName(f.Name))
			return nil
		}

		if err := h.Start(ctx); err != nil {
			fmt.Println(ui.Warn(err.Error()))
		}
		fmt.Println(factsBlock(h.Facts(), h.ProviderID()))
		return nil
	},
}
