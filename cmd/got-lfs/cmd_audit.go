package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/odvcencio/got-lfs/pkg/integrity"
	"github.com/odvcencio/got-lfs/pkg/lfs"
	"github.com/odvcencio/got-lfs/pkg/object"
	"github.com/spf13/cobra"
)

func newPointersCmd() *cobra.Command {
	var target targetFlags
	cmd := &cobra.Command{
		Use:   "pointers <oldrev> <newrev>",
		Short: "List the large file pointers added between two revisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := target.open()
			if err != nil {
				return err
			}
			pointers, err := lfs.NewScanner(r).Pointers(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range pointers {
				fmt.Fprintf(out, "%s %d %s\n", p.OID, p.Size, p.Path)
			}
			return nil
		},
	}
	target.register(cmd)
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var (
		target targetFlags
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check the full tree of every ref for large objects missing from storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, project, err := target.open()
			if err != nil {
				return err
			}
			refs, err := r.ListRefs(prefix)
			if err != nil {
				return err
			}
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			gate := a.newGate(b, r)
			tgt := integrity.Target{ID: project, Blobs: r}
			out := cmd.OutOrStdout()
			names := slices.Sorted(maps.Keys(refs))
			failed := false
			for _, name := range names {
				missing, err := gate.MissingObjects(cmd.Context(), tgt, string(object.EmptyTreeHash), string(refs[name]))
				if err != nil {
					return fmt.Errorf("audit refs/%s: %w", name, err)
				}
				for _, oid := range missing {
					fmt.Fprintf(out, "refs/%s: missing %s\n", name, oid)
				}
				failed = failed || len(missing) > 0
			}
			if failed {
				return errMissingObjects
			}
			fmt.Fprintf(out, "audited %d ref(s)\n", len(names))
			return nil
		},
	}
	target.register(cmd)
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only audit refs under refs/<prefix>, e.g. heads")
	return cmd
}
