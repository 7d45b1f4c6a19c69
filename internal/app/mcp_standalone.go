package app

import (
	"context"

	"go.uber.org/zap"

	"dashboard/internal/config"
	mcpserver "dashboard/internal/mcp"
)

// ServeMCP runs the editor as a standalone MCP server on stdin/stdout with
// no GUI. It returns when stdin closes or ctx is cancelled.
func ServeMCP(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt, err := NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if n, err := rt.Editor.SaveDirty(context.Background(), "mcp exit"); err == nil && n > 0 {
			logger.Info("mcp: saved dirty sessions on exit", zap.Int("count", n))
		}
		rt.Close(context.Background())
	}()
	if err := rt.Start(ctx); err != nil {
		return err
	}

	srv := mcpserver.New(mcpserver.Deps{
		Editor:  rt.Editor,
		Filters: rt.Filters,
		Logger:  logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
