package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/tool/recommend"
	"github.com/tkumagai/cinexpert/pkg/tool/websearch"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	rec := recommend.New()
	ws := websearch.New()

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, tmdbFlags(&cfg)...)
	flags = append(flags, rec.Flags()...)
	flags = append(flags, ws.Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the cinema expert (each turn is independent, no memory)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = setupLogger(ctx, &cfg)

			agent, err := cfg.newAgent(ctx, rec, ws)
			if err != nil {
				return err
			}
			defer agent.repo.Close()

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open input")
			}
			defer rl.Close()

			fmt.Fprintln(c.Root().Writer, "Ask about movies, reviews, or cinema topics. Type 'exit' to quit.")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}
				if line == "exit" {
					break
				}
				if line == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " Generating response..."
				sp.Start()

				resp, err := agent.expert.Invoke(ctx, model.NewExpertRequest(line))
				sp.Stop()

				// Chat keeps going on a failed turn; errors show inline.
				if err != nil {
					fmt.Fprintf(c.Root().Writer, "An error occurred: %v\n", err)
					continue
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", resp.GeneratedResponse)
			}

			fmt.Fprintln(c.Root().Writer, "\nChat session completed")
			return nil
		},
	}
}
