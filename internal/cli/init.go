package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaa/mvpipe/internal/config"
	"github.com/jaa/mvpipe/internal/exitcode"
)

func newInitCommand(app *AppContext) *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:     "init [path]",
		Aliases: []string{"generate-config"},
		Short:   "Write a starter config.json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initTargetPath(app, args)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			if err := config.EnsureConfigDir(path); err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("config already exists at %s (rerun with --force)", path))
			}

			if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("write config file: %w", err))
			}

			fmt.Fprintf(app.IO.Out, "Wrote config: %s\n", path)
			fmt.Fprintln(app.IO.Out, "Edit music_library and output_dir, then run: mvpipe run")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	return cmd
}

func initTargetPath(app *AppContext, args []string) (string, error) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else if configured := strings.TrimSpace(app.Opts.ConfigPath); configured != "" {
		raw = configured
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	if raw == "" {
		return config.ProjectConfigPath(wd), nil
	}
	path, err := config.ResolvePath(wd, raw)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, "config.json")
	}
	return path, nil
}
