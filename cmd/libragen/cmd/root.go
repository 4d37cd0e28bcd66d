// Package cmd provides the CLI commands for libragen: a thin cobra
// wrapper over pkg/library and internal/pkgmanager. It has no TUI,
// spinners, or daemon mode — every command runs once and prints its
// result.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the libragen CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "libragen",
		Short:         "Build, search, and manage libragen library artifacts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newBuildCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newInstallCmd())
	root.AddCommand(newUninstallCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
