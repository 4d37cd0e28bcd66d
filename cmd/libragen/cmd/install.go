package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libragen/libragen/internal/pkgmanager"
)

func newInstallCmd() *cobra.Command {
	var force bool
	var asCollection bool

	cmd := &cobra.Command{
		Use:   "install <source>",
		Short: "Install a library artifact, or every library named by a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collectionURI := ""
			if asCollection {
				collectionURI = args[0]
			}
			return runInstall(cmd, args[0], force, collectionURI)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an already-installed library")
	cmd.Flags().BoolVar(&asCollection, "collection", false, "treat <source> as a collection document URI instead of a single artifact")

	return cmd
}

func runInstall(cmd *cobra.Command, source string, force bool, collectionURI string) error {
	out := cmd.OutOrStdout()
	m := pkgmanager.New(nil)

	if collectionURI != "" {
		report, err := m.InstallCollection(cmd.Context(), collectionURI, pkgmanager.InstallCollectionOptions{Force: force})
		if err != nil {
			return fmt.Errorf("install collection: %w", err)
		}
		for _, name := range report.Installed {
			fmt.Fprintf(out, "installed %s\n", name)
		}
		for _, name := range report.Skipped {
			fmt.Fprintf(out, "skipped %s (already installed)\n", name)
		}
		for name, ferr := range report.Failed {
			fmt.Fprintf(out, "failed %s: %v\n", name, ferr)
		}
		return nil
	}

	if err := m.Install(cmd.Context(), source, pkgmanager.InstallOptions{Force: force}); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	fmt.Fprintf(out, "installed %s\n", source)
	return nil
}
