package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/core/loader"
	"github.com/dmitrymomot/dimreg/integration/source/fsdir"
)

var errCheckFailed = errors.New("malformed constraint documents")

func checkCmd(flags *rootFlags) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Check that constraint documents load",
		Long: `check loads every given document, or every document matching --pattern
under a given directory, and reports which ones are malformed. Documents
named constraints_<dataset id>.<ext> must describe that dataset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := flags.newLogger(); err != nil {
				return err
			}
			paths, err := expandPaths(cmd.Context(), args, pattern)
			if err != nil {
				return err
			}
			failed := 0
			for _, p := range paths {
				if !checkFile(cmd.OutOrStdout(), p) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errCheckFailed, failed, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", fsdir.DefaultPattern, "document glob used for directory arguments")
	return cmd
}

// expandPaths replaces directory arguments with the documents under them.
func expandPaths(ctx context.Context, args []string, pattern string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		src, err := fsdir.New(arg, fsdir.WithPattern(pattern))
		if err != nil {
			return nil, err
		}
		names, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			out = append(out, filepath.Join(src.Root(), filepath.FromSlash(name)))
		}
	}
	return out, nil
}

func checkFile(w io.Writer, path string) bool {
	var opts []loader.Option
	if id, ok := ingest.DatasetIDFromName(filepath.Base(path)); ok {
		opts = append(opts, loader.WithExpectedDatasetID(id))
	}
	c, err := loader.LoadFile(path, opts...)
	if err != nil {
		var merr *constraint.MalformedError
		if errors.As(err, &merr) && merr.Path != "" {
			_, _ = fmt.Fprintf(w, "FAIL %s: %s: %s\n", path, merr.Path, merr.Reason)
		} else {
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
		}
		return false
	}
	_, _ = fmt.Fprintf(w, "OK   %s (dataset %s, %d dimensions)\n", path, c.ID(), c.Len())
	return true
}
