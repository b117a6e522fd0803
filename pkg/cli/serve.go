package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/server"
	"github.com/tkumagai/cinexpert/pkg/tool/recommend"
	"github.com/tkumagai/cinexpert/pkg/tool/websearch"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	rec := recommend.New()
	ws := websearch.New()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8000",
			Sources:     cli.EnvVars("CINEXPERT_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, tmdbFlags(&cfg)...)
	flags = append(flags, rec.Flags()...)
	flags = append(flags, ws.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the cinema expert HTTP endpoint",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = setupLogger(ctx, &cfg)

			agent, err := cfg.newAgent(ctx, rec, ws)
			if err != nil {
				return err
			}
			defer agent.repo.Close()

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.New(agent.expert),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logging.From(ctx).Info("serving", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))
			}
			return nil
		},
	}
}
