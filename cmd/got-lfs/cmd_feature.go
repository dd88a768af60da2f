package main

import (
	"fmt"

	"github.com/odvcencio/got-lfs/pkg/repo"
	"github.com/spf13/cobra"
)

func newFeatureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Turn the large object check on or off per project",
	}
	cmd.AddCommand(newFeatureSetCmd(a, "enable", true), newFeatureSetCmd(a, "disable", false), newFeatureStatusCmd(a))
	return cmd
}

func newFeatureSetCmd(a *app, name string, enabled bool) *cobra.Command {
	var (
		local    bool
		repoPath string
	)
	cmd := &cobra.Command{
		Use:   name + " [project]",
		Short: "Record a per-project override",
		Long: `Without --local the override is stored in the sqlite index for the named
project. With --local it is written to the repository's .got/config.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				r, err := repo.Open(repoPath)
				if err != nil {
					return err
				}
				if err := r.SetLFSEnabled(enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "large object check %sd in %s\n", name, r.RootDir)
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("%s: a project is required without --local", name)
			}

			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			if b.db == nil {
				return errNeedSQLite
			}
			if err := b.db.SetFeature(cmd.Context(), args[0], enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "large object check %sd for %s\n", name, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Write the setting to the repository config")
	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository used with --local")
	return cmd
}

func newFeatureStatusCmd(a *app) *cobra.Command {
	var target targetFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print whether the check runs for a repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, project, err := target.open()
			if err != nil {
				return err
			}
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			server, err := a.serverToggle(b).EnabledFor(cmd.Context(), project)
			if err != nil {
				return err
			}
			local, err := repo.ConfigToggle{Repo: r, Default: true}.EnabledFor(cmd.Context(), project)
			if err != nil {
				return err
			}
			state := "disabled"
			if server && local {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (server %s, repository %s)\n", project, state, onOff(server), onOff(local))
			return nil
		},
	}
	target.register(cmd)
	return cmd
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
