package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"urchin/internal/ui"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Switch between configured accounts",
	Args:  cobra.NoArgs,
	RunE:  accountsRun,
}

func accountsRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	all := a.accounts.Accounts()
	current := a.accounts.Current()

	names := make([]string, len(all))
	descs := make([]string, len(all))
	for i, acct := range all {
		name := acct.Name
		if acct.ID == current.ID {
			name += " (current)"
		}
		names[i] = name
		descs[i] = fmt.Sprintf("%s on %s", acct.Backend, acct.Instance)
	}

	idx, err := ui.Select("Accounts", names, descs)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	picked := all[idx]
	if err := a.accounts.SetCurrent(picked); err != nil {
		return fmt.Errorf("switching account: %w", err)
	}
	fmt.Printf("Using %s (%s on %s).\n", picked.Name, picked.Backend, picked.Instance)
	return nil
}
