package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/activity"
	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var (
	historyAction string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent actions",
	Long: `List actions recorded by this machine, newest first.

Examples:
  tokendesk history
  tokendesk history --action multisend --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyAction != "" {
			if _, err := dispatch.ParseAction(historyAction); err != nil {
				return err
			}
		}
		j, err := activity.Open(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.List(cmd.Context(), historyAction, historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println(ui.Info("No actions recorded yet."))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "When", Width: 19},
			ui.Column{Title: "Action", Width: 10},
			ui.Column{Title: "Status", Width: 10},
			ui.Column{Title: "Account", Width: 14},
			ui.Column{Title: "Txs / error", Width: 48},
		)
		for _, e := range entries {
			detail := strings.Join(e.TxHashes, ",")
			if e.Error != "" {
				detail = e.Error
			}
			t.AddRow(
				ui.Meta(e.CreatedAt.Local().Format(time.DateTime)),
				ui.Val(e.Action),
				statusLabel(e.Status),
				ui.Addr(ui.TruncateAddr(e.Account)),
				ui.Meta(detail),
			)
		}
		fmt.Println(t.Render())
		return nil
	},
}

func statusLabel(s string) string {
	switch s {
	case activity.StatusConfirmed:
		return ui.StyleSuccess.Render(s)
	case activity.StatusFailed:
		return ui.StyleError.Render(s)
	default:
		return ui.StyleWarning.Render(s)
	}
}

func init() {
	historyCmd.Flags().StringVar(&historyAction, "action", "", "only show this action")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries")
}
