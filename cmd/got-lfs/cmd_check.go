package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/odvcencio/got-lfs/pkg/integrity"
	"github.com/odvcencio/got-lfs/pkg/repo"
	"github.com/spf13/cobra"
)

var errMissingObjects = errors.New(integrity.RejectionMessage)

// targetFlags are shared by the commands that inspect a pushed repository.
type targetFlags struct {
	repoPath string
	project  string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repoPath, "repo", ".", "Path to the repository receiving the push")
	cmd.Flags().StringVar(&f.project, "project", "", "Project id of the repository (default: repository directory name)")
}

func (f *targetFlags) open() (*repo.Repo, string, error) {
	r, err := repo.Open(f.repoPath)
	if err != nil {
		return nil, "", err
	}
	project := f.project
	if project == "" {
		project = filepath.Base(r.RootDir)
	}
	return r, project, nil
}

func newCheckCmd(a *app) *cobra.Command {
	var target targetFlags
	cmd := &cobra.Command{
		Use:   "check <oldrev> <newrev>",
		Short: "Check a revision range for large objects missing from storage",
		Long: `Check reports the large file pointers added between oldrev and newrev whose
objects are stored neither by the project nor by its pool parent. A newrev of
"-" or the null revision is a deletion and always passes.`,
		Args: cobra.ExactArgs(2),
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

			newrev := args[1]
			if newrev == "-" {
				newrev = ""
			}
			return checkRange(cmd.Context(), cmd.OutOrStdout(), a.newGate(b, r), integrity.Target{ID: project, Blobs: r}, args[0], newrev)
		},
	}
	target.register(cmd)
	return cmd
}

func newPreReceiveCmd(a *app) *cobra.Command {
	var target targetFlags
	cmd := &cobra.Command{
		Use:   "pre-receive",
		Short: "Run as a pre-receive hook reading <old> <new> <ref> lines from stdin",
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

			gate := a.newGate(b, r)
			tgt := integrity.Target{ID: project, Blobs: r}
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" {
					continue
				}
				fields := strings.Fields(line)
				if len(fields) != 3 {
					return fmt.Errorf("pre-receive: malformed update line %q", line)
				}
				if err := checkRange(cmd.Context(), cmd.OutOrStdout(), gate, tgt, fields[0], fields[1]); err != nil {
					if errors.Is(err, errMissingObjects) {
						log.Infow("rejecting push", "project", project, "ref", fields[2])
					}
					return err
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("pre-receive: read updates: %w", err)
			}
			return nil
		},
	}
	target.register(cmd)
	return cmd
}

// checkRange prints the missing oids of one update and returns
// errMissingObjects when there are any.
func checkRange(ctx context.Context, out io.Writer, gate *integrity.Gate, target integrity.Target, oldrev, newrev string) error {
	missing, err := gate.MissingObjects(ctx, target, oldrev, newrev)
	if err != nil {
		return err
	}
	for _, oid := range missing {
		fmt.Fprintf(out, "missing %s\n", oid)
	}
	if len(missing) > 0 {
		return errMissingObjects
	}
	return nil
}
