package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/got-lfs/pkg/lfs"
	"github.com/odvcencio/got-lfs/pkg/presence"
	"github.com/spf13/cobra"
)

func newObjectsCmd(a *app) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Manage the large objects recorded as stored for a project",
	}
	cmd.PersistentFlags().StringVar(&project, "project", "", "Project id owning the object store")
	cobra.CheckErr(cmd.MarkPersistentFlagRequired("project"))

	add := &cobra.Command{
		Use:   "add <oid[:size]>...",
		Short: "Record objects as present in the project's store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objects := make([]presence.Object, 0, len(args))
			for _, arg := range args {
				o, err := parseObjectArg(arg)
				if err != nil {
					return err
				}
				objects = append(objects, o)
			}

			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			if err := b.index.AddObjects(cmd.Context(), presence.StoreID(project), objects); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d object(s) for %s\n", len(objects), project)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List objects recorded for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			objects, err := b.index.ListObjects(cmd.Context(), presence.StoreID(project))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range objects {
				fmt.Fprintf(out, "%s %d\n", o.OID, o.Size)
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <oid>...",
		Short: "Forget objects recorded for the project (sqlite backend)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, oid := range args {
				if !lfs.ValidOID(oid) {
					return fmt.Errorf("invalid oid %q: want 64 lowercase hex characters", oid)
				}
			}
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			if b.db == nil {
				return errNeedSQLite
			}
			if err := b.db.RemoveObjects(cmd.Context(), presence.StoreID(project), args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d object(s) from %s\n", len(args), project)
			return nil
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

// parseObjectArg parses "oid" or "oid:size".
func parseObjectArg(arg string) (presence.Object, error) {
	oid, sizeStr, hasSize := strings.Cut(arg, ":")
	if !lfs.ValidOID(oid) {
		return presence.Object{}, fmt.Errorf("invalid oid %q: want 64 lowercase hex characters", oid)
	}
	var size int64
	if hasSize {
		n, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil || n < 0 {
			return presence.Object{}, fmt.Errorf("invalid size %q for %s", sizeStr, oid)
		}
		size = n
	}
	return presence.Object{OID: oid, Size: size}, nil
}
