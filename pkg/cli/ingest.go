package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/usecase/ingest"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg         config
		dataDir     string
		minCount    int64
		priorWeight float64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory containing movies.csv, ratings.csv and tags.csv",
			Sources:     cli.EnvVars("CINEXPERT_DATA_DIR"),
			Destination: &dataDir,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "min-count",
			Usage:       "Minimum rating count for the global-mean filter",
			Value:       1,
			Sources:     cli.EnvVars("CINEXPERT_BAYES_MIN_COUNT"),
			Destination: &minCount,
		},
		&cli.FloatFlag{
			Name:        "prior-weight",
			Usage:       "Shrinkage strength of the rating prior",
			Value:       0.5,
			Sources:     cli.EnvVars("CINEXPERT_BAYES_PRIOR_WEIGHT"),
			Destination: &priorWeight,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Build the catalog database from the CSV corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = setupLogger(ctx, &cfg)

			repo, err := cfg.newRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			pipeline := ingest.New(ingest.Input{
				Repo:        repo,
				Gemini:      gemini,
				Dims:        int(cfg.dims),
				MinCount:    minCount,
				PriorWeight: priorWeight,
			})

			if err := pipeline.Run(ctx, dataDir); err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}
			return nil
		},
	}
}
