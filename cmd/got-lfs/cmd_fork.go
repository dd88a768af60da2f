package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newForkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fork",
		Short: "Manage the storage pool parent of forked projects",
	}

	setCmd := &cobra.Command{
		Use:   "set <project> <parent>",
		Short: "Share the parent's object store with a fork",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			if b.db == nil {
				return errNeedSQLite
			}
			if err := b.db.SetPoolParent(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now shares the object pool of %s\n", args[0], args[1])
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <project>",
		Short: "Detach a fork from its pool parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			if b.db == nil {
				return errNeedSQLite
			}
			if err := b.db.ClearPoolParent(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s no longer has a pool parent\n", args[0])
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Print a project's pool parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			parent, ok, err := a.parentLookup(b).PoolParentOf(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no pool parent\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), parent)
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd, showCmd)
	return cmd
}
