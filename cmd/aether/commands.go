package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Vanadium-Development/aether/internal/cache"
	"github.com/Vanadium-Development/aether/internal/manifest"
	"github.com/Vanadium-Development/aether/internal/pathspec"
	"github.com/Vanadium-Development/aether/internal/project"
	"github.com/Vanadium-Development/aether/internal/tracking"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize an aether project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.dir
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting working directory: %w", err)
				}
				dir = cwd
			}

			if err := project.InitializeWithLogger(dir, a.log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized aether project in %s\n", dir)
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file|pattern>...",
		Short: "Add scene files to the tracked files",
		Long: `Add scene files to the tracked files.

Each file is recorded with the digest of its current content. Adding a
file again updates its digest if the content changed and does nothing
otherwise.

Paths are recorded exactly as given. Relative paths are relative to the
project directory and are only accepted when run from it. Glob patterns
are expanded, skipping files matched by the project's ignore rules:

  aether add scene.blend
  aether add 'shots/**/*.blend'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			if err := s.checkRelative(args); err != nil {
				return err
			}
			m, err := s.ignoreMatcher()
			if err != nil {
				return err
			}
			paths, err := pathspec.Expand(s.dir, args, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range paths {
				outcome, err := s.registry.Track(p)
				if err != nil {
					return err
				}
				if outcome == tracking.Unchanged {
					fmt.Fprintf(out, "File %s is unchanged\n", p)
					continue
				}
				fmt.Fprintf(out, "Tracking file %s\n", p)
			}
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <file>...",
		Aliases: []string{"rm"},
		Short:   "Remove files from the tracked files",
		Long:    `Remove files from the tracked files. The files themselves are left on disk.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			if err := s.checkRelative(args); err != nil {
				return err
			}

			var c *cache.FileCache
			if s.cfg.Cache {
				c, err = cache.Open(s.dir, a.log)
				if err != nil {
					a.log.WithError(err).Warn("digest cache unavailable, leaving cached digests")
				} else {
					defer c.Close()
				}
			}

			for _, p := range args {
				if err := s.registry.Remove(p); err != nil {
					return err
				}
				if c != nil {
					if err := c.Remove(s.registry.Resolve(p)); err != nil {
						a.log.WithError(err).WithField("path", p).Warn("could not drop cached digest")
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed file %s\n", p)
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			files, err := s.registry.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(files)
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No tracked files.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, f := range files {
				size := "-"
				if info, err := os.Stat(s.registry.Resolve(f.FilePath)); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", shortHash(f.Hash), size, f.FilePath)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which tracked files changed since they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}

			var hasher tracking.Hasher
			if s.cfg.Cache {
				c, err := cache.Open(s.dir, a.log)
				if err != nil {
					a.log.WithError(err).Warn("digest cache unavailable, hashing every file")
				} else {
					defer c.Close()
					hasher = c
				}
			}

			statuses, err := s.registry.Status(hasher)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}

			meta, err := project.ReadMetadata(s.dir)
			if err == nil {
				fmt.Fprintf(out, "Project created %s\n", humanize.Time(meta.CreationTimestamp))
			}

			changed := 0
			for _, st := range statuses {
				switch st.State {
				case tracking.StateModified:
					fmt.Fprintf(out, "M %s\n", st.FilePath)
					changed++
				case tracking.StateMissing:
					fmt.Fprintf(out, "D %s\n", st.FilePath)
					changed++
				}
			}
			if changed == 0 {
				fmt.Fprintf(out, "%d tracked files, all unchanged\n", len(statuses))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a compressed manifest of the tracked files",
		Long: `Write a zstd-compressed JSON manifest of the tracked files and their
digests, for handing to a distribution step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outFile == "" {
				return errors.New("--out is required")
			}

			s, err := a.open()
			if err != nil {
				return err
			}
			doc, err := s.registry.Document()
			if err != nil {
				return err
			}
			meta, err := project.ReadMetadata(s.dir)
			if err != nil {
				return err
			}

			m := manifest.New(doc.TrackedFiles, meta.CreationTimestamp, doc.Algorithm)
			var buf bytes.Buffer
			if err := manifest.Write(&buf, m); err != nil {
				return project.NewError("export", outFile, project.ErrSerialization, err)
			}
			if err := project.WriteFile(outFile, buf.Bytes()); err != nil {
				return project.NewError("export", outFile, project.ErrIO, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files to %s (%s)\n",
				len(m.Files), outFile, m.ExportedAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Manifest file to write")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Show the contents of an exported manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return project.NewError("inspect", args[0], project.ErrIO, err)
			}
			defer f.Close()

			m, err := manifest.Read(f)
			if err != nil {
				return project.NewError("inspect", args[0], project.ErrSerialization, err)
			}
			a.log.WithField("path", args[0]).Debug("manifest decoded")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Manifest version %d, %s digests\n", m.Version, m.Algorithm)
			fmt.Fprintf(out, "Project created %s\n", m.ProjectCreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Exported %s (%s)\n", m.ExportedAt.Format(time.RFC3339), humanize.Time(m.ExportedAt))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range m.Files {
				fmt.Fprintf(w, "%s\t%s\n", shortHash(e.Hash), e.FilePath)
			}
			return w.Flush()
		},
	}
}

// shortHash truncates a digest to 12 characters for display.
func shortHash(s string) string {
	if len(s) >= 12 {
		return s[:12]
	}
	return s
}
