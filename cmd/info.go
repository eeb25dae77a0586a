package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var (
	infoMethods     bool
	infoDescriptor  string
	infoDescriptors bool
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show token metadata",
	Long: `Read name, decimals and total supply from the configured token.
No account is needed.

Examples:
  tokendesk info
  tokendesk info --methods              # list the bound interface with selectors
  tokendesk info --descriptors          # list built-in interfaces
  tokendesk info --descriptor erc20     # read through a plain ERC-20 interface`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if infoDescriptors {
			printBuiltins()
			return nil
		}
		if infoDescriptor != "" {
			cfg.Token.Descriptor = infoDescriptor
			cfg.Token.ABIFile = ""
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		h, err := openDesk(ctx, nil, true)
		if err != nil {
			return err
		}
		defer h.Close()

		if infoMethods {
			printMethods(h)
		}
		if !h.HasProvider() {
			return nil
		}

		spin := ui.NewSpinner("Reading token…")
		spin.Start()
		err = h.Load(ctx)
		spin.Stop()
		if err != nil {
			fmt.Println(ui.Warn(err.Error()))
		}
		fmt.Println(factsBlock(h.Facts(), h.ProviderID()))
		return nil
	},
}

func printMethods(h *deskHandle) {
	desc := h.Descriptor()
	t := ui.NewTable(
		ui.Column{Title: "Selector", Width: 12},
		ui.Column{Title: "Function", Width: 40},
		ui.Column{Title: "Kind", Width: 6},
	)
	for _, m := range desc.Methods() {
		kind := "write"
		if m.Read {
			kind = "read"
		}
		t.AddRow(ui.Meta(m.Selector), ui.Val(m.Signature), ui.Meta(kind))
	}
	fmt.Printf("%s  %s\n", ui.StyleTitle.Render(desc.Name), ui.Meta("("+desc.ID+")"))
	fmt.Println(t.Render())
}

func printBuiltins() {
	t := ui.NewTable(
		ui.Column{Title: "ID", Width: 12},
		ui.Column{Title: "Name", Width: 18},
		ui.Column{Title: "Functions", Width: 9},
		ui.Column{Title: "Description", Width: 44},
	)
	for _, b := range contract.AllBuiltins() {
		id := b.ID
		if id == cfg.Token.Descriptor && cfg.Token.ABIFile == "" {
			id += " *"
		}
		t.AddRow(ui.Val(id), ui.TokenName(b.Name), ui.Meta(fmt.Sprint(len(b.ABI))), ui.Meta(b.Description))
	}
	fmt.Println(t.Render())
	fmt.Println(ui.Hint("Actions need a descriptor with every write; read commands accept any of these."))
}

// factsBlock renders the token panel shared by info, balance and connect.
func factsBlock(f token.Facts, providerID string) string {
	account := f.Account
	if account == "" {
		account = "not connected"
	}
	return ui.KeyValueBlock(ui.TokenName(orDash(f.Name)), [][2]string{
		{"Token", cfg.Token.Address},
		{"Provider", orDash(providerID)},
		{"Account", account},
		{"Balance", displayAmount(f.Balance, f.Decimals)},
		{"Total supply", displayAmount(f.TotalSupply, f.Decimals)},
		{"Decimals", fmt.Sprint(f.Decimals)},
	})
}

func displayAmount(base string, decimals uint8) string {
	if !cfg.DisplayUnits || decimals == 0 {
		return base
	}
	return fmt.Sprintf("%s (%s base units)", token.FormatUnits(base, decimals), base)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	infoCmd.Flags().BoolVar(&infoMethods, "methods", false, "list the contract functions the desk binds")
	infoCmd.Flags().StringVar(&infoDescriptor, "descriptor", "", "read through this built-in interface instead of the configured one")
	infoCmd.Flags().BoolVar(&infoDescriptors, "descriptors", false, "list built-in interfaces and exit")
}
