package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/spf13/cobra"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage local wallets for the keystore provider",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet (private key kept in the OS keychain) or a
watch-only address.

Examples:
  tokendesk wallet add alice --key 0xac09…
  tokendesk wallet add treasury 0x3Bc9…`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		if walletKeyFlag != "" {
			w, err := mgr.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: tokendesk wallet use %s", name)))
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("address required for watch-only wallet\n  Usage: tokendesk wallet add <name> <address>\n  Or for signing: tokendesk wallet add <name> --key <private-key>")
		}
		address := args[1]
		if err := mgr.Add(name, &wallet.Wallet{
			Name:    name,
			Address: address,
			Type:    wallet.TypeWatchOnly,
		}); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(address))))
		fmt.Println(ui.Meta("Watch-only wallets are not offered for account access."))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		wallets := mgr.List()

		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: tokendesk wallet add alice --key <private-key>"))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "Name", Width: 16},
			ui.Column{Title: "Address", Width: 44},
			ui.Column{Title: "Type", Width: 12},
			ui.Column{Title: "Default", Width: 8},
		)
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(walletTypeLabel(w.Type)), def)
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !assumeYes && !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		mgr := newWalletManager()
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			cfg.Save() //nolint:errcheck
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Long: `Set the default wallet. The keystore provider offers it first, so it
becomes the active account after connect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()
		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		if err := wallet.NewGrantCache(cfg.GrantsPath()).ClearAll(); err != nil {
			fmt.Println(ui.Warn(fmt.Sprintf("clearing cached grants: %v", err)))
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "signing"
	}
	return "watch-only"
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key (hex) for a signing wallet")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}
