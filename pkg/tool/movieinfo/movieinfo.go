package movieinfo

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const defaultNResults = 3

type movieInfoInput struct {
	Movie    string `json:"movie"`
	NResults int    `json:"n_results"`
}

// MovieInfo is the get_movie_information tool: look up factual metadata and
// credits for a title via TMDB.
type MovieInfo struct {
	tmdb adapter.TMDB
}

// New creates the movie information tool
func New(tmdb adapter.TMDB) *MovieInfo {
	return &MovieInfo{tmdb: tmdb}
}

// Flags returns CLI flags for this tool
func (x *MovieInfo) Flags() []cli.Flag {
	return nil
}

// Prompt returns additional information to be added to the system prompt
func (x *MovieInfo) Prompt(ctx context.Context) string {
	return `Always call get_movie_information for factual requests (e.g. "Who directed Inception?" or "What is the plot of Parasite?").`
}

// Spec returns the tool specification for Gemini function calling
func (x *MovieInfo) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_movie_information",
				Description: "Get more information about a certain movie. Only search the name of the movie. For example: 'The Matrix'",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"movie": {
							Type:        genai.TypeString,
							Description: "The movie title to look up",
						},
						"n_results": {
							Type:        genai.TypeInteger,
							Description: "Number of candidate works to return detail for (default: 3)",
						},
					},
					Required: []string{"movie"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *MovieInfo) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input movieInfoInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Movie == "" {
		return nil, goerr.New("movie is required")
	}
	if input.NResults <= 0 {
		input.NResults = defaultNResults
	}

	candidates, err := x.tmdb.SearchMovies(ctx, input.Movie)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search movie", goerr.V("movie", input.Movie))
	}
	if len(candidates) > input.NResults {
		candidates = candidates[:input.NResults]
	}

	details := make([]map[string]any, 0, len(candidates))
	for _, candidate := range candidates {
		info, err := x.tmdb.MovieInfo(ctx, candidate.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get movie info", goerr.V("movie_id", candidate.ID))
		}
		credits, err := x.tmdb.MovieCredits(ctx, candidate.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get movie credits", goerr.V("movie_id", candidate.ID))
		}
		details = append(details, map[string]any{
			"info":    info,
			"credits": credits,
		})
	}

	logging.From(ctx).Info("movie lookup completed",
		"movie", input.Movie,
		"candidates", len(details))

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"movie_information": details},
	}, nil
}
