// Package cli implements the listctl commands.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seb7887/listkit/internal/app"
	"github.com/seb7887/listkit/logging"
)

var (
	// Version is injected during build
	Version = "dev"
)

type root struct {
	configDir  string
	configName string
	cfg        *app.Config
	logger     *slog.Logger
}

// NewRootCommand builds listctl with all of its subcommands.
func NewRootCommand() *cobra.Command {
	r := &root{}

	cmd := &cobra.Command{
		Use:   "listctl",
		Short: "listctl keeps ordered task lists",
		Long: `listctl stores tasks in ordered lists and moves them up, down, to the
top or to the bottom while keeping positions 1..n in every list.

Configuration is read from <config-dir>/<config-name>.yaml when present and
from LISTKIT_* environment variables, e.g. LISTKIT_DATABASE_DSN.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(r.configDir, r.configName)
			if err != nil {
				return err
			}
			r.cfg = cfg
			r.logger = logging.New(logging.Config{
				Level:  logging.ParseLevel(cfg.Log.Level),
				Format: logging.ParseFormat(cfg.Log.Format),
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&r.configDir, "config-dir", ".", "Directory holding the config file")
	cmd.PersistentFlags().StringVar(&r.configName, "config-name", "listctl", "Config file name without extension")

	cmd.AddCommand(
		newInitCommand(r),
		newAddCommand(r),
		newListCommand(r),
		newMoveCommand(r),
		newRemoveCommand(r),
		newVerifyCommand(r),
		newServeCommand(r),
	)
	return cmd
}

// withApp opens the configured backends for the duration of fn.
func (r *root) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.Open(ctx, r.cfg, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			r.logger.Warn("closing backends", "error", err)
		}
	}()
	return fn(a)
}
