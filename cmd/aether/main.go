// Package main provides the aether CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Vanadium-Development/aether/internal/config"
	"github.com/Vanadium-Development/aether/internal/ignore"
	"github.com/Vanadium-Development/aether/internal/logging"
	"github.com/Vanadium-Development/aether/internal/project"
	"github.com/Vanadium-Development/aether/internal/tracking"
)

// Version is the current aether CLI version
var Version = "0.2.0"

// app carries state shared by all subcommands of one invocation.
type app struct {
	dir     string
	verbose bool
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "aether",
		Short:         "Aether - a distributed blender render manager",
		Long:          `Aether tracks the scene files of a render project by content hash so that changed files can be shipped to render nodes.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = logging.New(cmd.ErrOrStderr(), a.verbose)
		},
	}

	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", "", "Project directory (default: the working directory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newExportCmd(a),
		newInspectCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// projectDir is --dir when given, otherwise the working directory.
// Parent directories are never searched.
func (a *app) projectDir() (string, error) {
	if a.dir != "" {
		return a.dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return cwd, nil
}

// session is an opened project: its directory, configuration and registry.
type session struct {
	dir      string
	cfg      *config.Config
	registry *tracking.Registry
}

func (a *app) open() (*session, error) {
	dir, err := a.projectDir()
	if err != nil {
		return nil, err
	}
	if err := project.Require("open", dir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	algo, err := cfg.Algorithm()
	if err != nil {
		return nil, err
	}

	reg, err := tracking.Open(dir, tracking.WithAlgorithm(algo), tracking.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	return &session{dir: dir, cfg: cfg, registry: reg}, nil
}

// checkRelative rejects relative file arguments unless the working
// directory is the project directory, which the registry resolves them
// against.
func (s *session) checkRelative(args []string) error {
	var rel string
	for _, arg := range args {
		if !filepath.IsAbs(arg) {
			rel = arg
			break
		}
	}
	if rel == "" {
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	here, err := os.Stat(cwd)
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	there, err := os.Stat(s.dir)
	if err != nil {
		return project.NewError("open", s.dir, project.ErrIO, err)
	}
	if !os.SameFile(here, there) {
		return fmt.Errorf("relative path %q needs the working directory to be the project directory %s; pass an absolute path instead", rel, s.dir)
	}
	return nil
}

func (s *session) ignoreMatcher() (*ignore.Matcher, error) {
	m, err := ignore.LoadFromDir(s.dir, s.cfg.IgnoreFile)
	if err != nil {
		return nil, fmt.Errorf("loading ignore rules: %w", err)
	}
	return m, nil
}
