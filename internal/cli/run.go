package cli

import (
	"context"
	"log/slog"

	"github.com/mavrogato/othones/application/window"
	"github.com/mavrogato/othones/infrastructure/shm"
	"github.com/mavrogato/othones/internal/config"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var color uint32
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and draw until it is closed or Escape is pressed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd.Context(), getConfig(cmd), color)
		},
	}
	cmd.Flags().Uint32Var(&color, "color", 0xff000000, "fill color as 0xAARRGGBB")
	return cmd
}

func runWindow(ctx context.Context, cfg *config.Config, color uint32) error {
	conn, cleanup, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []window.Option{
		window.WithTitle(cfg.Window.Title),
		window.WithAppID(cfg.Window.AppID),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithColor(color),
	}
	if cfg.RuntimeDir != "" {
		opts = append(opts, window.WithShmOptions(shm.WithRuntimeDir(cfg.RuntimeDir)))
	}
	app := window.New(conn, opts...)
	defer app.Close()

	setupCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	err = app.Setup(setupCtx)
	cancel()
	if err != nil {
		return err
	}

	err = app.Run(ctx)
	slog.InfoContext(ctx, "cli: window finished", "frames", app.Frames())
	return err
}
