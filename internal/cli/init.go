package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var recreate bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize atlas storage",
		Long: "Create the configuration and data directories and the catalog schema.\n" +
			"With --recreate every table is dropped first and all data is lost.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			if recreate {
				if err := backend.Recreate(cmd.Context()); err != nil {
					return fmt.Errorf("recreate schema: %w", err)
				}
				a.log.Warn("catalog recreated")
				fmt.Fprintln(out(cmd), "Atlas catalog recreated")
				return nil
			}
			fmt.Fprintln(out(cmd), "Atlas initialized successfully")
			return nil
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate every table")
	return cmd
}
