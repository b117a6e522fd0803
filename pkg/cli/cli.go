package cli

import (
	"context"
	"os"

	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "cinexpert",
		Usage: "Movie recommendation chat agent",
		Commands: []*cli.Command{
			ingestCommand(),
			serveCommand(),
			evalCommand(),
			askCommand(),
			chatCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// setupLogger installs the configured logger as the default and attaches it
// to the context.
func setupLogger(ctx context.Context, cfg *config) context.Context {
	logger := logging.New(cfg.logLevel, os.Stdout)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}
