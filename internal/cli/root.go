// Package cli implements the othones command line.
package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"

	"github.com/mavrogato/othones/domain/errors"
	"github.com/mavrogato/othones/internal/config"
	"github.com/mavrogato/othones/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ctxKey string

const configKey ctxKey = "config"

// Execute builds the root command and runs it with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	var cfgPath string
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "othones",
		Short:         "A Wayland client built on owned capability proxies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			cfg, err := config.Decode(v)
			if err != nil {
				return err
			}
			if err := setupLogging(cmd.ErrOrStderr(), cfg); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (yaml|toml|json)")
	flags.String("display", "", "compositor socket name or path")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.String("trace", "", "record delivered events to this file")
	for key, name := range map[string]string{
		"display":    "display",
		"log.level":  "log-level",
		"log.format": "log-format",
		"trace":      "trace",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newGlobalsCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newTraceCmd())
	cmd.AddCommand(newConfigCmd(v))

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func setupLogging(w io.Writer, cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	logging.Setup(logging.WithLevel(level), logging.WithFormat(format), logging.WithWriter(w))
	return nil
}

func getConfig(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey).(*config.Config)
	return cfg
}

// Report prints a diagnostic for err to w and returns the exit status.
// Typed runtime errors name the failed operation and the capability kind.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if stdErrors.Is(err, context.Canceled) {
		return 130
	}
	_, _ = fmt.Fprintf(w, "othones: %v\n", err)
	d := errors.ToErrorDetail(err)
	if d.Operation != "" {
		_, _ = fmt.Fprintf(w, "  operation: %s\n", d.Operation)
	}
	if d.Interface != "" {
		_, _ = fmt.Fprintf(w, "  interface: %s\n", d.Interface)
	}
	if d.Object != 0 {
		_, _ = fmt.Fprintf(w, "  object:    %d\n", d.Object)
	}
	if d.Type == "protocol" {
		_, _ = fmt.Fprintf(w, "  code:      %d\n", d.Code)
	}
	return 1
}
