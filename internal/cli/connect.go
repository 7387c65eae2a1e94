package cli

import (
	"context"
	"log/slog"

	"github.com/mavrogato/othones/infrastructure/socket"
	"github.com/mavrogato/othones/infrastructure/trace"
	"github.com/mavrogato/othones/internal/config"
)

// connect dials the compositor with the standard middleware and, when
// configured, an event recorder. The returned func flushes pending
// requests and closes everything.
func connect(ctx context.Context, cfg *config.Config) (*socket.Conn, func(), error) {
	mw := []socket.Middleware{
		socket.PanicRecoveryMiddleware(),
		socket.LoggingMiddleware(slog.Default()),
	}

	var rec *trace.Recorder
	if cfg.Trace != "" {
		var err error
		rec, err = trace.Create(cfg.Trace)
		if err != nil {
			return nil, nil, err
		}
		mw = append(mw, rec.Middleware())
		slog.InfoContext(ctx, "cli: recording events", "path", cfg.Trace)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	conn, err := socket.Dial(dialCtx, socket.Config{Display: cfg.Display, RuntimeDir: cfg.RuntimeDir}, socket.WithMiddleware(mw...))
	if err != nil {
		if rec != nil {
			_ = rec.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if err := conn.Flush(); err != nil {
			slog.Debug("cli: final flush failed", "error", err)
		}
		_ = conn.Close()
		if rec != nil {
			if err := rec.Close(); err != nil {
				slog.Warn("cli: closing trace failed", "error", err)
			}
		}
	}
	return conn, cleanup, nil
}
