package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libragen/libragen/internal/pkgmanager"
)

func newUninstallCmd() *cobra.Command {
	var collection bool

	cmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Uninstall a library, or a collection and any libraries it leaves unreferenced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := pkgmanager.New(nil)
			if collection {
				if err := m.UninstallCollection(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("uninstall collection: %w", err)
				}
			} else if err := m.Uninstall(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("uninstall: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&collection, "collection", false, "treat <name> as a collection name")
	return cmd
}
