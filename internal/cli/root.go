// Package cli implements the sheetmatch command line.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sheetmatch/internal/config"
	"sheetmatch/internal/logging"
)

// skipConfigFile marks commands that must run without reading the config
// file, such as the one that creates it.
const skipConfigFile = "skip-config-file"

// app carries the state shared by all commands of one invocation.
type app struct {
	cfgFile   string
	verbose   bool
	quiet     bool
	logLevel  string
	logFormat string

	v      *viper.Viper
	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New(""), logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "sheetmatch",
		Short: "sheetmatch - cross-file fuzzy reconciliation of spreadsheets",
		Long: `sheetmatch compares two or more spreadsheets (CSV or XLSX) on a set of key
columns. It reports how often every distinct key occurs in each file, and
whether each key is present in every file, allowing for small spelling
differences through a token-sort similarity score.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Annotations[skipConfigFile] == "true")
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.sheetmatch/config.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only log warnings and errors")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (auto, json, console)")

	rootCmd.AddCommand(
		newCompareCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// init reads .env, the config file and the environment, then sets up
// logging.
func (a *app) init(skipFile bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if !skipFile {
		if a.cfgFile != "" {
			a.v.SetConfigFile(a.cfgFile)
		}
		if err := config.ReadInConfig(a.v); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" && !a.verbose && !a.quiet {
		// Already resolved from SHEETMATCH_LOG_LEVEL, the file or the default
		level = cfg.Log.Level
	}
	logCfg := cfg.Log
	logCfg.Level = logging.ResolveLevel(level, a.verbose, a.quiet)
	if a.logFormat != "" {
		logCfg.Format = a.logFormat
	}
	a.logger = logging.NewLoggerFromConfig(&logCfg)
	logging.SetDefault(a.logger)

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug().Str("file", used).Msg("Using config file")
	}
	return nil
}
