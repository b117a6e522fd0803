package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"github.com/tkumagai/cinexpert/pkg/tool"
	"github.com/tkumagai/cinexpert/pkg/tool/movieinfo"
	"github.com/tkumagai/cinexpert/pkg/tool/recommend"
	"github.com/tkumagai/cinexpert/pkg/tool/websearch"
	"github.com/tkumagai/cinexpert/pkg/usecase/expert"
	"github.com/urfave/cli/v3"
)

// config holds configuration values, populated once by flag parsing and
// passed into every constructor. Business logic never reads ambient state.
type config struct {
	// Store
	dbPath string
	dims   int64

	// Adapters
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string
	tmdbAPIKey      string

	// Agent
	toolChoice  string
	strictTools bool

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"d"},
			Usage:       "Path to the DuckDB catalog database",
			Value:       "cinexpert.db",
			Sources:     cli.EnvVars("CINEXPERT_DB_PATH"),
			Destination: &cfg.dbPath,
		},
		&cli.IntFlag{
			Name:        "dims",
			Usage:       "Embedding dimensions of the catalog vector column",
			Value:       384,
			Sources:     cli.EnvVars("CINEXPERT_EMBEDDING_DIMS"),
			Destination: &cfg.dims,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("CINEXPERT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("CINEXPERT_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("CINEXPERT_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Generative model ID",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("CINEXPERT_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model ID",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("CINEXPERT_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "tool-choice",
			Usage:       "First-round tool choice policy (auto, any, none)",
			Value:       "auto",
			Sources:     cli.EnvVars("CINEXPERT_TOOL_CHOICE"),
			Destination: &cfg.toolChoice,
		},
		&cli.BoolFlag{
			Name:        "strict-tools",
			Usage:       "Fail on unrecognized tool names instead of skipping them",
			Sources:     cli.EnvVars("CINEXPERT_STRICT_TOOLS"),
			Destination: &cfg.strictTools,
		},
	}
}

// tmdbFlags returns flags for the metadata lookup credential
func tmdbFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tmdb-api-key",
			Usage:       "TMDB API read access token",
			Sources:     cli.EnvVars("CINEXPERT_TMDB_API_KEY"),
			Destination: &cfg.tmdbAPIKey,
		},
	}
}

// newRepository opens the catalog store. Serving commands require the
// database file to exist already; only ingestion may create it.
func (cfg *config) newRepository(allowCreate bool) (repository.Repository, error) {
	if cfg.dbPath == "" {
		return nil, goerr.New("db path is required")
	}
	if !allowCreate {
		if _, err := os.Stat(cfg.dbPath); err != nil {
			return nil, goerr.Wrap(err, "the database does not exist, run ingest first",
				goerr.V("path", cfg.dbPath))
		}
	}

	repo, err := repository.NewDuckDB(cfg.dbPath, int(cfg.dims))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open catalog store")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
	)
}

// newTMDB creates the metadata lookup client
func (cfg *config) newTMDB() (adapter.TMDB, error) {
	if cfg.tmdbAPIKey == "" {
		return nil, goerr.New("tmdb-api-key is required")
	}
	return adapter.NewTMDB(cfg.tmdbAPIKey), nil
}

// agent bundles the wired serving dependencies.
type agent struct {
	repo   repository.Repository
	gemini adapter.Gemini
	expert *expert.Expert
}

// newAgent wires the repository, adapters, tool registry and expert. rec and
// ws are created at command construction time so their flags register; this
// finishes their initialization from parsed configuration.
func (cfg *config) newAgent(ctx context.Context, rec *recommend.Recommend, ws *websearch.WebSearch) (*agent, error) {
	repo, err := cfg.newRepository(false)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	tmdb, err := cfg.newTMDB()
	if err != nil {
		return nil, err
	}

	if err := ws.LoadConfig(); err != nil {
		return nil, err
	}
	rec.Init(repo, gemini, int(cfg.dims))

	var opts []tool.Option
	if cfg.strictTools {
		opts = append(opts, tool.WithStrictDispatch())
	}
	registry := tool.New([]tool.Tool{rec, movieinfo.New(tmdb), ws}, opts...)

	toolChoice, err := expert.ParseToolChoice(cfg.toolChoice)
	if err != nil {
		return nil, err
	}

	return &agent{
		repo:   repo,
		gemini: gemini,
		expert: expert.New(gemini, registry, toolChoice),
	}, nil
}
