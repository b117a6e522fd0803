package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/tool/recommend"
	"github.com/tkumagai/cinexpert/pkg/tool/websearch"
	"github.com/tkumagai/cinexpert/pkg/usecase/eval"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func evalCommand() *cli.Command {
	var (
		cfg      config
		tests    string
		samples  int64
		seed     uint64
		quizPath string
		output   string
	)

	rec := recommend.New()
	ws := websearch.New()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "tests",
			Usage:       "Comma-separated tests to run (quiz, correlation, classification) or 'all'",
			Value:       "all",
			Sources:     cli.EnvVars("CINEXPERT_EVAL_TESTS"),
			Destination: &tests,
		},
		&cli.IntFlag{
			Name:        "samples",
			Usage:       "Number of held-out users to sample",
			Value:       100,
			Sources:     cli.EnvVars("CINEXPERT_EVAL_SAMPLES"),
			Destination: &samples,
		},
		&cli.UintFlag{
			Name:        "seed",
			Usage:       "Random seed for held-out sampling",
			Value:       1,
			Sources:     cli.EnvVars("CINEXPERT_EVAL_SEED"),
			Destination: &seed,
		},
		&cli.StringFlag{
			Name:        "quiz",
			Usage:       "Path to the multiple-choice quiz JSON file",
			Sources:     cli.EnvVars("CINEXPERT_EVAL_QUIZ"),
			Destination: &quizPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Path for the JSON results document",
			Value:       "eval_results.json",
			Sources:     cli.EnvVars("CINEXPERT_EVAL_OUTPUT"),
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, tmdbFlags(&cfg)...)
	flags = append(flags, rec.Flags()...)
	flags = append(flags, ws.Flags()...)

	return &cli.Command{
		Name:  "eval",
		Usage: "Measure agent and retrieval quality",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = setupLogger(ctx, &cfg)

			selected, err := parseTests(tests)
			if err != nil {
				return err
			}
			if selected.Quiz && quizPath == "" {
				return goerr.New("quiz path is required for the quiz test")
			}

			agent, err := cfg.newAgent(ctx, rec, ws)
			if err != nil {
				return err
			}
			defer agent.repo.Close()

			runner := eval.New(eval.Input{
				Repo:     agent.repo,
				Gemini:   agent.gemini,
				Invoker:  agent.expert,
				Dims:     int(cfg.dims),
				Tests:    selected,
				Samples:  int(samples),
				Seed:     seed,
				QuizPath: quizPath,
			})

			results, err := runner.Run(ctx)
			if err != nil {
				return goerr.Wrap(err, "evaluation failed")
			}

			if err := eval.WriteResults(output, results); err != nil {
				return err
			}

			logging.From(ctx).Info("evaluation completed", "output", output)
			fmt.Fprintf(c.Root().Writer, "Results written to %s\n", output)
			return nil
		},
	}
}

func parseTests(s string) (eval.Tests, error) {
	if strings.EqualFold(s, "all") {
		return eval.Tests{Quiz: true, Correlation: true, Classification: true}, nil
	}

	var tests eval.Tests
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "quiz":
			tests.Quiz = true
		case "correlation":
			tests.Correlation = true
		case "classification":
			tests.Classification = true
		case "":
		default:
			return eval.Tests{}, goerr.New("unknown test name", goerr.V("name", name))
		}
	}
	if !tests.Any() {
		return eval.Tests{}, goerr.New("no tests selected", goerr.V("tests", s))
	}
	return tests, nil
}
