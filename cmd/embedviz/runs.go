package main

import (
	"fmt"

	"github.com/hupe1980/embedviz/archive"
	"github.com/hupe1980/embedviz/codec"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived projection runs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived run IDs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			ex, _, err := a.explorer(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			ids, err := ex.Runs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id|latest>",
		Short: "Print an archived run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			ex, _, err := a.explorer(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			var rec *archive.Record
			if args[0] == "latest" {
				rec, err = ex.LatestRun(cmd.Context())
			} else {
				rec, err = ex.LoadRun(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			data, err := codec.Default.Marshal(rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			ex, _, err := a.explorer(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			return ex.DeleteRun(cmd.Context(), args[0])
		},
	})
	return cmd
}
