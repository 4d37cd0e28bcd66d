package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/libragen/libragen/internal/pkgmanager"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	m := pkgmanager.New(nil)

	libs, err := m.Discover(cmd.Context())
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(libs) == 0 {
		fmt.Fprintln(out, "no libraries installed")
		return nil
	}

	for _, lib := range libs {
		size := humanize.Bytes(uint64(lib.Metadata.Stats.FileSize))
		age := humanize.Time(lib.Metadata.CreatedAt)
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%d chunks\t%s\n",
			lib.Name, lib.Version, lib.Location, size, lib.Metadata.Stats.ChunkCount, age)
	}
	return nil
}
