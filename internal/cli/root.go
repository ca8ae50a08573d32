// Package cli implements the htmlsan command line tool.
//
// Configuration is read from, in decreasing order of precedence:
//  1. Command-line flags (--preset, --allow-comments, ...)
//  2. HTMLSAN_* environment variables (HTMLSAN_PRESET, HTMLSAN_ALLOW_COMMENTS, ...)
//  3. The policy file given by --config or HTMLSAN_CONFIG
//
// A policy file holds the same keys as the flags plus an optional "policy"
// section that replaces the preset:
//
//	preset: basic
//	allow_comments: true
//	policy:
//	  elements: [b, i, a]
//	  attributes:
//	    a: [href]
package cli

import (
	"fmt"
	"strings"

	"github.com/njchilds90/htmlsanitizer/v2"
	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/njchilds90/htmlsanitizer/v2/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the tool reads.
const EnvPrefix = "HTMLSAN"

type app struct {
	v      *viper.Viper
	logger *logging.SlogLogger
}

// NewRootCommand builds the htmlsan command tree with its own configuration
// state.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "htmlsan",
		Short: "Sanitize untrusted HTML against an allow-list policy",
		Long: `htmlsan streams HTML through an allow-list sanitizer. Disallowed elements
are unwrapped or dropped with their content, attributes are filtered per
element, and URL attributes are restricted to allowed protocols.

Quick Start:
  htmlsan sanitize --preset basic page.html    Sanitize a file to stdout
  htmlsan policy --preset relaxed              Print a preset as YAML
  htmlsan diff --preset basic page.html        Show what the policy removes
  htmlsan watch ./incoming --out ./clean       Sanitize files as they arrive`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "policy file (YAML, TOML or JSON; also HTMLSAN_CONFIG)")
	pf.String("preset", config.PresetDefault, "base policy: "+strings.Join(config.Presets, ", "))
	pf.Bool("allow-comments", false, "keep HTML comments")
	pf.Bool("allow-doctype", false, "keep doctype declarations")
	pf.StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	bindFlags(a.v, pf)

	root.AddCommand(
		a.newSanitizeCommand(),
		a.newPolicyCommand(),
		a.newDiffCommand(),
		a.newWatchCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// bindFlags exposes every flag of fs to v under its name with dashes
// replaced by underscores.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	level, err := logging.ParseLevel(a.v.GetString("log_level"))
	if err != nil {
		return err
	}
	a.logger = logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    a.v.GetString("log_format"),
		Output:    cmd.ErrOrStderr(),
		Component: "htmlsan",
	})
	return nil
}

func (a *app) policy() (*config.Config, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return cfg, nil
}

func (a *app) sanitizer() (*htmlsanitizer.Sanitizer, error) {
	cfg, err := a.policy()
	if err != nil {
		return nil, err
	}
	return a.newSanitizer(cfg)
}

// newSanitizer builds a Sanitizer for cfg. Sanitizers are not safe for
// concurrent use, so each worker builds its own.
func (a *app) newSanitizer(cfg *config.Config) (*htmlsanitizer.Sanitizer, error) {
	return htmlsanitizer.New(cfg, htmlsanitizer.WithLogger(a.logger.Slog()))
}
