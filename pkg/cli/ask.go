package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/tool/recommend"
	"github.com/tkumagai/cinexpert/pkg/tool/websearch"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var cfg config

	rec := recommend.New()
	ws := websearch.New()

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, tmdbFlags(&cfg)...)
	flags = append(flags, rec.Flags()...)
	flags = append(flags, ws.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the cinema expert a single question",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = setupLogger(ctx, &cfg)

			question := c.Args().First()
			if question == "" {
				return goerr.New("question is required")
			}

			agent, err := cfg.newAgent(ctx, rec, ws)
			if err != nil {
				return err
			}
			defer agent.repo.Close()

			resp, err := agent.expert.Invoke(ctx, model.NewExpertRequest(question))
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			fmt.Fprintln(c.Root().Writer, resp.GeneratedResponse)
			return nil
		},
	}
}
