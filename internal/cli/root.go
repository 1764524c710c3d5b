package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jaa/mvpipe/internal/exitcode"
	"github.com/jaa/mvpipe/internal/logging"
)

func Execute(build BuildInfo, streams IOStreams) int {
	if wd, err := os.Getwd(); err == nil {
		if envErr := loadDotEnvFiles(wd, os.Environ(), os.Setenv); envErr != nil {
			fmt.Fprintln(streams.ErrOut, "WARN:", envErr)
		}
	}

	app := &AppContext{Build: build, IO: streams}
	root := newRootCommand(app)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return mapExitCode(err)
	}
	return exitcode.Success
}

func newRootCommand(app *AppContext) *cobra.Command {
	showVersion := false

	root := &cobra.Command{
		Use:   "mvpipe",
		Short: "Find, download and transcribe music videos for a local music library",
		Long:  "mvpipe scans a music library, searches YouTube through yt-dlp for the official video of every song, copies the song's tags onto the downloaded video and writes lyric transcripts for both.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(app.Opts.LogFormat))
			switch format {
			case "", logging.FormatConsole, logging.FormatJSON:
			default:
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("invalid --log-format %q (expected: console, json)", app.Opts.LogFormat))
			}
			if app.Opts.JSON {
				format = logging.FormatJSON
			}
			logging.New(app.IO.ErrOut, logging.Options{
				Format:  format,
				Verbose: app.Opts.Verbose,
				Quiet:   app.Opts.Quiet,
				NoColor: app.Opts.NoColor,
			})
			log.Debug().Str("command", cmd.CommandPath()).Str("version", app.Build.Version).Msg("starting")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(app)
				return nil
			}
			return cmd.Help()
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	defaultConfigPath := os.Getenv("MVPIPE_CONFIG")
	root.PersistentFlags().StringVarP(&app.Opts.ConfigPath, "config", "c", defaultConfigPath, "Path to config file (default: ./config.json, then the user config)")
	root.PersistentFlags().BoolVar(&app.Opts.JSON, "json", false, "Emit newline-delimited JSON events")
	root.PersistentFlags().BoolVarP(&app.Opts.Quiet, "quiet", "q", false, "Reduce output to errors and summary")
	root.PersistentFlags().BoolVarP(&app.Opts.Verbose, "verbose", "v", false, "Increase diagnostic output")
	root.PersistentFlags().BoolVar(&app.Opts.NoColor, "no-color", false, "Disable color output")
	root.PersistentFlags().StringVar(&app.Opts.LogFormat, "log-format", logging.FormatConsole, "Diagnostic log format: console or json")
	root.Flags().BoolVar(&showVersion, "version", false, "Print version info")

	// Accept the snake_case spellings (--music_library) alongside kebab-case.
	root.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(exitcode.InvalidUsage, err)
	})

	root.AddCommand(newInitCommand(app))
	root.AddCommand(newValidateCommand(app))
	root.AddCommand(newDoctorCommand(app))
	root.AddCommand(newRunCommand(app))
	root.AddCommand(newVersionCommand(app))

	return root
}

func printVersion(app *AppContext) {
	version := app.Build.Version
	if version == "" {
		version = "dev"
	}
	commit := app.Build.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := app.Build.Date
	if date == "" {
		date = "unknown"
	}

	fmt.Fprintf(app.IO.Out, "mvpipe version %s\ncommit: %s\nbuild_date: %s\n", version, commit, date)
}
