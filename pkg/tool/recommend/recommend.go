package recommend

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/repository"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const defaultK = 10

// Search tiers. The acclaimed tier requires a substantial rating history so
// that a high adjusted rating reflects real consensus; the broad tier lets
// niche titles through.
const (
	acclaimedMinCount = 50
	broadMinCount     = 1
)

type recommendInput struct {
	UserRequest                    string `json:"user_request"`
	K                              int    `json:"k"`
	UserDesiresCriticallyAcclaimed bool   `json:"user_desires_critically_acclaimed"`
}

// Recommend is the get_movie_recommendation tool: encode the request text,
// search the catalog under a confidence tier, return titles.
type Recommend struct {
	repo    repository.Repository
	gemini  adapter.Gemini
	dims    int
	cutHigh float64
	cutLow  float64
}

// New creates the recommendation tool. Cutoff defaults may be overridden by
// flags before Init wires the live dependencies.
func New() *Recommend {
	return &Recommend{
		cutHigh: 4.0,
		cutLow:  3.0,
	}
}

// Init wires the catalog store and the encoder. dims must match the ingested
// catalog.
func (x *Recommend) Init(repo repository.Repository, gemini adapter.Gemini, dims int) {
	x.repo = repo
	x.gemini = gemini
	x.dims = dims
}

// Flags returns CLI flags for this tool
func (x *Recommend) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "search-cutoff-high",
			Usage:       "Minimum adjusted rating for critically acclaimed searches",
			Value:       4.0,
			Sources:     cli.EnvVars("CINEXPERT_SEARCH_CUTOFF_HIGH"),
			Destination: &x.cutHigh,
		},
		&cli.FloatFlag{
			Name:        "search-cutoff-low",
			Usage:       "Minimum adjusted rating for broad searches",
			Value:       3.0,
			Sources:     cli.EnvVars("CINEXPERT_SEARCH_CUTOFF_LOW"),
			Destination: &x.cutLow,
		},
	}
}

// Prompt returns additional information to be added to the system prompt
func (x *Recommend) Prompt(ctx context.Context) string {
	return `Always call get_movie_recommendation when suggesting films (e.g. "What should I watch?" or "Recommend a thriller"). When recommending films, lean heavily on the output of the get_movie_recommendation tool.`
}

// Spec returns the tool specification for Gemini function calling
func (x *Recommend) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_movie_recommendation",
				Description: "Get a film recommendation",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"user_request": {
							Type:        genai.TypeString,
							Description: "Free-text description of what the user wants to watch",
						},
						"k": {
							Type:        genai.TypeInteger,
							Description: "Number of titles to return (default: 10)",
						},
						"user_desires_critically_acclaimed": {
							Type:        genai.TypeBoolean,
							Description: "True when the user wants well-known, critically acclaimed films rather than niche ones",
						},
					},
					Required: []string{"user_request"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *Recommend) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input recommendInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.UserRequest == "" {
		return nil, goerr.New("user_request is required")
	}
	if input.K <= 0 {
		input.K = defaultK
	}

	titles, err := x.Titles(ctx, input.UserRequest, input.K, input.UserDesiresCriticallyAcclaimed)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"movie_recommendation": titles},
	}, nil
}

// Titles encodes the request and searches the catalog under the tier chosen
// by preferAcclaimed. The evaluation harness calls this directly, bypassing
// the function-call plumbing.
func (x *Recommend) Titles(ctx context.Context, userRequest string, k int, preferAcclaimed bool) ([]string, error) {
	if x.repo == nil || x.gemini == nil {
		return nil, goerr.New("recommendation tool is not initialized")
	}

	minAdjusted, minCount := x.cutLow, int64(broadMinCount)
	if preferAcclaimed {
		minAdjusted, minCount = x.cutHigh, int64(acclaimedMinCount)
	}

	embedding, err := x.gemini.Embedding(ctx, userRequest, x.dims)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode user request")
	}

	hits, err := x.repo.SearchSimilar(ctx, &repository.SearchInput{
		Embedding:   embedding,
		MinAdjusted: minAdjusted,
		MinCount:    minCount,
		Limit:       k,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search catalog")
	}

	titles := make([]string, 0, len(hits))
	for _, hit := range hits {
		titles = append(titles, hit.Title)
	}

	logging.From(ctx).Info("vector search completed",
		"query", userRequest,
		"acclaimed", preferAcclaimed,
		"returned_movies", titles)

	return titles, nil
}
